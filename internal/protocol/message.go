package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgReconnect MessageType = "reconnect" // 断线重连
	MsgPing      MessageType = "ping"      // 心跳 ping

	// 牌桌操作
	MsgCreateRoom MessageType = "create_room" // 创建牌桌
	MsgJoinRoom   MessageType = "join_room"   // 加入牌桌
	MsgLeaveRoom  MessageType = "leave_room"  // 离开牌桌

	// 对局操作：统一入口，payload 携带引擎动作名和参数
	MsgGameAction MessageType = "game_action"

	// 信息查询
	MsgGetStats       MessageType = "get_stats"       // 获取个人统计
	MsgGetLeaderboard MessageType = "get_leaderboard" // 获取排行榜
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected     MessageType = "connected"      // 连接成功
	MsgReconnected   MessageType = "reconnected"    // 重连成功
	MsgPong          MessageType = "pong"           // 心跳 pong
	MsgPlayerOffline MessageType = "player_offline" // 玩家掉线通知
	MsgPlayerOnline  MessageType = "player_online"  // 玩家上线通知

	// 牌桌相关
	MsgRoomCreated  MessageType = "room_created"  // 牌桌创建成功
	MsgRoomJoined   MessageType = "room_joined"   // 加入牌桌成功
	MsgPlayerJoined MessageType = "player_joined" // 其他玩家加入
	MsgPlayerLeft   MessageType = "player_left"   // 玩家离开

	// 对局流程
	MsgActionResult MessageType = "action_result" // 动作执行结果（私发给动作发起者）
	MsgGameState    MessageType = "game_state"    // 对局公共状态广播
	MsgYourCards    MessageType = "your_cards"    // 私发手牌
	MsgMatchOver    MessageType = "match_over"    // 整场比赛结束

	// 信息查询
	MsgStatsResult       MessageType = "stats_result"       // 个人统计结果
	MsgLeaderboardResult MessageType = "leaderboard_result" // 排行榜结果

	// 错误
	MsgError MessageType = "error" // 错误消息
)

// Encode 序列化消息
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeInto 反序列化到已有消息对象（配合对象池使用）
func (m *Message) DecodeInto(data []byte) error {
	return json.Unmarshal(data, m)
}

// Decode 反序列化消息
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
