package protocol

import "github.com/mickaelseznec/mus/internal/game/card"

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// PongPayload 心跳应答
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// ConnectedPayload 连接成功时下发的身份信息
type ConnectedPayload struct {
	ClientID     string `json:"client_id"`
	SessionToken string `json:"session_token"` // 断线重连凭证
}

// ReconnectPayload 断线重连请求
type ReconnectPayload struct {
	SessionToken string `json:"session_token"`
}

// ReconnectedPayload 重连成功应答
type ReconnectedPayload struct {
	ClientID string `json:"client_id"`
	RoomCode string `json:"room_code,omitempty"` // 重连前所在的牌桌
}

// CreateRoomPayload 创建牌桌请求
type CreateRoomPayload struct {
	Nickname string `json:"nickname"`
	TeamID   int    `json:"team_id"` // 0 或 1
}

// JoinRoomPayload 加入牌桌请求
type JoinRoomPayload struct {
	RoomCode string `json:"room_code"`
	Nickname string `json:"nickname"`
	TeamID   int    `json:"team_id"`
}

// RoomCreatedPayload 牌桌创建成功应答
type RoomCreatedPayload struct {
	RoomCode string `json:"room_code"`
	PlayerID int    `json:"player_id"` // 引擎内的公开座位号
	TeamID   int    `json:"team_id"`
}

// RoomJoinedPayload 加入牌桌成功应答
type RoomJoinedPayload struct {
	RoomCode string       `json:"room_code"`
	PlayerID int          `json:"player_id"`
	TeamID   int          `json:"team_id"`
	Players  []PlayerInfo `json:"players"` // 桌上已有的玩家
}

// PlayerInfo 牌桌内玩家的公开信息
type PlayerInfo struct {
	PlayerID int    `json:"player_id"`
	Nickname string `json:"nickname"`
	TeamID   int    `json:"team_id"`
	Online   bool   `json:"online"`
}

// PlayerJoinedPayload 其他玩家加入的广播
type PlayerJoinedPayload struct {
	Player PlayerInfo `json:"player"`
}

// PlayerLeftPayload 玩家离开的广播
type PlayerLeftPayload struct {
	PlayerID int `json:"player_id"`
}

// PlayerPresencePayload 玩家掉线/上线通知
type PlayerPresencePayload struct {
	PlayerID int `json:"player_id"`
}

// GameActionPayload 对局动作的统一入口。
// Action 必填；其余字段按动作选填：
//   - add_player/mus/mintza/confirm/paso/imido/idoki/tira/hordago/kanta/get_cards 只看 Action
//   - change 用 Indices（0~3 的牌位集合）
//   - toggle 用 Index
//   - gehiago 用 Offer
type GameActionPayload struct {
	Action  ActionType `json:"action"`
	TeamID  *int       `json:"team_id,omitempty"` // 仅 add_player 换队时使用
	Indices []int      `json:"indices,omitempty"`
	Index   *int       `json:"index,omitempty"`
	Offer   int        `json:"offer,omitempty"`
}

// ActionResultPayload 动作执行结果，私发给动作发起者
type ActionResultPayload struct {
	Action ActionType     `json:"action"`
	Result ResponseStatus `json:"result"`
}

// YourCardsPayload 私发手牌
type YourCardsPayload struct {
	Cards []card.Card `json:"cards"`
}

// GameStatus 对局公共状态快照，每次动作成功后全桌广播
type GameStatus struct {
	CurrentState GameState         `json:"current_state"`
	TurnNumber   int               `json:"turn_number"`
	Players      []PlayerStatus    `json:"players"`
	Teams        []TeamStatus      `json:"teams"`
	EchkuOrder   []int             `json:"echku_order"` // 座位号，头手在前
	GameOver     bool              `json:"game_over"`
	WinnerTeam   *int              `json:"winner_team,omitempty"`
	States       map[GameState]any `json:"states"` // 各阶段的公开表示，只含已进入过的阶段
}

// PlayerStatus 玩家在状态快照中的公开表示
type PlayerStatus struct {
	PlayerID int  `json:"player_id"`
	TeamID   int  `json:"team_id"`
	CanSpeak bool `json:"can_speak"` // 当前是否轮到该玩家行动
}

// TeamStatus 队伍在状态快照中的公开表示
type TeamStatus struct {
	TeamID  int   `json:"team_id"`
	Players []int `json:"players"`
	Score   int   `json:"score"` // 本局累计分
	Games   int   `json:"games"` // 赢下的局数
}

// SpeakingStatus Speaking 阶段的公开表示
type SpeakingStatus struct {
	TeamSaidMus []bool `json:"team_said_mus"` // 按队伍下标，本轮是否已喊 mus
}

// TradingStatus Trading 阶段的公开表示。
// 只公开每人要换几张，不公开换哪几张。键是座位号。
type TradingStatus struct {
	AskCounts map[int]int  `json:"ask_counts"`
	Confirmed map[int]bool `json:"confirmed"`
}

// BetStatus 下注阶段的公开表示
type BetStatus struct {
	Bid             int    `json:"bid"`           // 已锁定的注
	Offer           int    `json:"offer"`         // 待响应的加注量
	BidDeferred     bool   `json:"bid_deferred"`  // 注是否推迟到结算阶段按比牌结果发放
	Engaged         bool   `json:"engaged"`       // 是否有人起过注
	UnderHordago    bool   `json:"under_hordago"` // 是否处于 hordago 待响应
	IsSkipped       bool   `json:"is_skipped"`    // 阶段因无人够格而被跳过
	WinnerTeam      *int         `json:"winner_team,omitempty"`
	Bonus           int          `json:"bonus"`                      // 结算时发放的附加分
	PlayerQualifies map[int]bool `json:"player_qualifies,omitempty"` // 键是座位号，是否够格参赛
}

// MatchOverPayload 整场比赛结束的广播
type MatchOverPayload struct {
	WinnerTeam int   `json:"winner_team"`
	Scores     []int `json:"scores"` // 按队伍下标
	Games      []int `json:"games"`
}

// StatsPayload 个人统计结果
type StatsPayload struct {
	Nickname string `json:"nickname"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Points   int    `json:"points"`
	WinRate  string `json:"win_rate"`
}

// LeaderboardEntry 排行榜单条记录
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Nickname string `json:"nickname"`
	Wins     int    `json:"wins"`
	Points   int    `json:"points"`
}

// LeaderboardPayload 排行榜结果
type LeaderboardPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
