// Package server 实现 WebSocket 对局服务器：连接管理、牌桌、消息分发与持久化。
package server

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/mickaelseznec/mus/internal/apperrors"
	"github.com/mickaelseznec/mus/internal/game/card"
	"github.com/mickaelseznec/mus/internal/game/mus"
	"github.com/mickaelseznec/mus/internal/game/roster"
	"github.com/mickaelseznec/mus/internal/protocol"
	"github.com/mickaelseznec/mus/internal/server/session"
	"github.com/mickaelseznec/mus/internal/server/storage"
	"github.com/mickaelseznec/mus/internal/types"
)

const (
	// 牌桌号长度
	roomCodeLength = 6
	// 牌桌号字符集
	roomCodeChars = "0123456789"
	// 等待状态牌桌的超时时间
	roomIdleTimeout = 2 * time.Hour
	// 一桌最多 4 人（2v2）
	maxPlayersPerRoom = 4
)

// Room 一张牌桌，包一个对局引擎。
// 引擎本身不做并发控制，所有动作经 mu 串行化。
type Room struct {
	Code      string
	CreatedAt time.Time

	game      *mus.Game
	clients   map[string]types.ClientInterface // clientID -> 连接
	nicknames map[string]string                // clientID -> 昵称

	manager *RoomManager
	mu      sync.Mutex
}

// RoomManager 牌桌管理器
type RoomManager struct {
	rooms map[string]*Room
	mu    sync.RWMutex

	store       *storage.RedisStore
	leaderboard *storage.LeaderboardManager
	sessions    *session.Manager
	maxScore    int
}

// NewRoomManager 创建牌桌管理器。store 和 leaderboard 可为 nil（不持久化）。
func NewRoomManager(store *storage.RedisStore, leaderboard *storage.LeaderboardManager, sessions *session.Manager, maxScore int) *RoomManager {
	rm := &RoomManager{
		rooms:       make(map[string]*Room),
		store:       store,
		leaderboard: leaderboard,
		sessions:    sessions,
		maxScore:    maxScore,
	}

	// 启动牌桌清理协程
	go rm.cleanupLoop()

	return rm
}

// CreateRoom 创建牌桌并让创建者入座
func (rm *RoomManager) CreateRoom(client types.ClientInterface, nickname string, teamID int) (*Room, *roster.Player, error) {
	rm.mu.Lock()
	code := rm.generateRoomCode()
	room := &Room{
		Code:      code,
		CreatedAt: time.Now(),
		game:      mus.New(rm.maxScore),
		clients:   make(map[string]types.ClientInterface),
		nicknames: make(map[string]string),
		manager:   rm,
	}
	rm.rooms[code] = room
	rm.mu.Unlock()

	player, err := room.AddPlayer(client, nickname, teamID)
	if err != nil {
		rm.mu.Lock()
		delete(rm.rooms, code)
		rm.mu.Unlock()
		return nil, nil, err
	}

	log.Printf("🏠 牌桌 %s 已创建，玩家 %s", code, nickname)
	return room, player, nil
}

// JoinRoom 加入牌桌
func (rm *RoomManager) JoinRoom(client types.ClientInterface, code, nickname string, teamID int) (*Room, *roster.Player, error) {
	rm.mu.RLock()
	room, exists := rm.rooms[code]
	rm.mu.RUnlock()
	if !exists {
		return nil, nil, apperrors.ErrRoomNotFound
	}

	player, err := room.AddPlayer(client, nickname, teamID)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("👤 玩家 %s 加入牌桌 %s", nickname, code)
	return room, player, nil
}

// LeaveRoom 离开牌桌
func (rm *RoomManager) LeaveRoom(client types.ClientInterface) {
	room := rm.GetRoom(client.GetRoom())
	if room == nil {
		return
	}

	if empty := room.RemovePlayer(client); empty {
		rm.removeRoom(room.Code)
	}
}

// GetRoom 获取牌桌
func (rm *RoomManager) GetRoom(code string) *Room {
	if code == "" {
		return nil
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[code]
}

// NotifyPlayerOffline 玩家掉线时通知同桌其他人
func (rm *RoomManager) NotifyPlayerOffline(client types.ClientInterface) {
	room := rm.GetRoom(client.GetRoom())
	if room == nil {
		return
	}
	room.NotifyOffline(client.GetID())
}

// ReconnectPlayer 玩家带旧身份重连回牌桌
func (rm *RoomManager) ReconnectPlayer(client types.ClientInterface, code string) error {
	room := rm.GetRoom(code)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}
	return room.Reconnect(client)
}

// GetActiveGamesCount 获取进行中的对局数量
func (rm *RoomManager) GetActiveGamesCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	count := 0
	for _, room := range rm.rooms {
		room.mu.Lock()
		if room.game.CurrentState() != protocol.StateWaitingRoom {
			count++
		}
		room.mu.Unlock()
	}
	return count
}

// removeRoom 删除牌桌
func (rm *RoomManager) removeRoom(code string) {
	rm.mu.Lock()
	delete(rm.rooms, code)
	rm.mu.Unlock()

	if rm.store != nil {
		go func() { _ = rm.store.DeleteTable(context.Background(), code) }()
	}
	log.Printf("🏠 牌桌 %s 已解散", code)
}

// generateRoomCode 生成唯一牌桌号，调用方需持有 rm.mu
func (rm *RoomManager) generateRoomCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeChars[rand.Intn(len(roomCodeChars))]
		}
		codeStr := string(code)
		if _, exists := rm.rooms[codeStr]; !exists {
			return codeStr
		}
	}
}

// cleanupLoop 定期清理超时牌桌
func (rm *RoomManager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rm.cleanup()
	}
}

// cleanup 清理一直没开局的超时牌桌
func (rm *RoomManager) cleanup() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	now := time.Now()
	for code, room := range rm.rooms {
		room.mu.Lock()
		stale := room.game.CurrentState() == protocol.StateWaitingRoom &&
			now.Sub(room.CreatedAt) > roomIdleTimeout
		if stale {
			room.broadcastLocked(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "牌桌超时已关闭"))
			for _, c := range room.clients {
				c.SetRoom("")
			}
		}
		room.mu.Unlock()

		if stale {
			delete(rm.rooms, code)
			log.Printf("🏠 牌桌 %s 超时已清理", code)
		}
	}
}

// --- Room 方法 ---

// AddPlayer 让玩家入座。引擎只在等待室接受 add_player，
// 对局开始后加入会返回 Forbidden。
func (r *Room) AddPlayer(client types.ClientInterface, nickname string, teamID int) (*roster.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seated := r.clients[client.GetID()]; !seated && len(r.clients) >= maxPlayersPerRoom {
		return nil, apperrors.ErrRoomFull
	}

	resp := r.game.Apply(mus.Action{
		Type:     protocol.ActionAddPlayer,
		PlayerID: client.GetID(),
		TeamID:   teamID,
	})
	if resp.Status != protocol.StatusOK {
		return nil, apperrors.ErrForbidden
	}

	player, ok := resp.Result.(*roster.Player)
	if !ok {
		return nil, apperrors.ErrForbidden
	}

	r.clients[client.GetID()] = client
	r.nicknames[client.GetID()] = nickname
	client.SetRoom(r.Code)
	if r.manager != nil && r.manager.sessions != nil {
		r.manager.sessions.SetRoom(client.GetID(), r.Code)
		r.manager.sessions.SetNickname(client.GetID(), nickname)
	}

	r.broadcastExceptLocked(client.GetID(), protocol.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		Player: protocol.PlayerInfo{
			PlayerID: player.PublicID,
			Nickname: nickname,
			TeamID:   player.TeamID(),
			Online:   true,
		},
	}))

	r.saveSnapshotLocked()
	return player, nil
}

// RemovePlayer 让玩家离座，返回牌桌是否已空。
// 对局已开始时引擎拒绝离座，此时只断开连接、保留席位等待重连。
func (r *Room) RemovePlayer(client types.ClientInterface) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clientID := client.GetID()
	player := r.game.Roster().PlayerByID(clientID)
	if player == nil {
		return false
	}
	publicID := player.PublicID

	resp := r.game.Apply(mus.Action{
		Type:     protocol.ActionRemovePlayer,
		PlayerID: clientID,
	})
	if resp.Status != protocol.StatusOK {
		// 对局进行中：席位保留，只把连接摘掉
		delete(r.clients, clientID)
		r.broadcastLocked(protocol.MustNewMessage(protocol.MsgPlayerOffline, protocol.PlayerPresencePayload{
			PlayerID: publicID,
		}))
		return false
	}

	delete(r.clients, clientID)
	delete(r.nicknames, clientID)
	client.SetRoom("")
	if r.manager != nil && r.manager.sessions != nil {
		r.manager.sessions.SetRoom(clientID, "")
	}

	r.broadcastLocked(protocol.MustNewMessage(protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{
		PlayerID: publicID,
	}))

	r.saveSnapshotLocked()
	return len(r.clients) == 0
}

// HandleAction 执行一个对局动作并把结果下发：
// 动作结果私发给发起者；成功的动作让全桌同步一次公共状态；
// 新一轮发牌后每人私发手牌；比赛分出胜负时广播终局。
func (r *Room) HandleAction(client types.ClientInterface, payload protocol.GameActionPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 离座只能走 leave_room，保证牌桌簿记一致
	if payload.Action == protocol.ActionRemovePlayer {
		client.SendMessage(protocol.MustNewMessage(protocol.MsgActionResult, protocol.ActionResultPayload{
			Action: payload.Action,
			Result: protocol.StatusForbidden,
		}))
		return
	}

	act := mus.Action{
		Type:     payload.Action,
		PlayerID: client.GetID(),
		Indices:  payload.Indices,
		Offer:    payload.Offer,
	}
	if payload.TeamID != nil {
		act.TeamID = *payload.TeamID
	}
	if payload.Index != nil {
		act.Index = *payload.Index
	}

	prevState := r.game.CurrentState()
	resp := r.game.Apply(act)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgActionResult, protocol.ActionResultPayload{
		Action: payload.Action,
		Result: resp.Status,
	}))
	if resp.Status != protocol.StatusOK {
		return
	}

	// get_cards 是旁路查询，手牌只私发，不动公共状态
	if payload.Action == protocol.ActionGetCards {
		if cards, ok := resp.Result.([]card.Card); ok {
			client.SendMessage(protocol.MustNewMessage(protocol.MsgYourCards, protocol.YourCardsPayload{
				Cards: cards,
			}))
		}
		return
	}

	r.broadcastLocked(protocol.MustNewMessage(protocol.MsgGameState, r.game.Status()))

	newState := r.game.CurrentState()
	if newState != prevState && newState == protocol.StateSpeaking {
		// 进入 Speaking 意味着刚发过牌（开局、换牌后或新一局）
		r.sendAllCardsLocked()
	}
	if newState != prevState && newState == protocol.StateFinished && r.game.Finished() {
		r.announceMatchOverLocked()
	}

	r.saveSnapshotLocked()
}

// Reconnect 玩家带旧 clientID 重连，替换连接并补发状态
func (r *Room) Reconnect(client types.ClientInterface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.game.Roster().PlayerByID(client.GetID())
	if player == nil {
		return apperrors.ErrNotInRoom
	}

	r.clients[client.GetID()] = client
	client.SetRoom(r.Code)

	r.broadcastExceptLocked(client.GetID(), protocol.MustNewMessage(protocol.MsgPlayerOnline, protocol.PlayerPresencePayload{
		PlayerID: player.PublicID,
	}))

	// 补发公共状态和手牌
	client.SendMessage(protocol.MustNewMessage(protocol.MsgGameState, r.game.Status()))
	if r.game.CurrentState() != protocol.StateWaitingRoom {
		client.SendMessage(protocol.MustNewMessage(protocol.MsgYourCards, protocol.YourCardsPayload{
			Cards: player.Cards(),
		}))
	}

	return nil
}

// NotifyOffline 向同桌其他玩家广播掉线通知
func (r *Room) NotifyOffline(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.game.Roster().PlayerByID(clientID)
	if player == nil {
		return
	}

	r.broadcastExceptLocked(clientID, protocol.MustNewMessage(protocol.MsgPlayerOffline, protocol.PlayerPresencePayload{
		PlayerID: player.PublicID,
	}))
}

// PlayerInfos 桌上所有玩家的公开信息，按队伍排序
func (r *Room) PlayerInfos() []protocol.PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerInfosLocked()
}

func (r *Room) playerInfosLocked() []protocol.PlayerInfo {
	var infos []protocol.PlayerInfo
	for _, player := range r.game.Roster().AllPlayersTeamOrdered() {
		_, online := r.clients[player.ID]
		infos = append(infos, protocol.PlayerInfo{
			PlayerID: player.PublicID,
			Nickname: r.nicknames[player.ID],
			TeamID:   player.TeamID(),
			Online:   online,
		})
	}
	return infos
}

// Status 当前对局公共状态
func (r *Room) Status() protocol.GameStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Status()
}

// Broadcast 向全桌广播
func (r *Room) Broadcast(msg *protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(msg)
}

func (r *Room) broadcastLocked(msg *protocol.Message) {
	for _, client := range r.clients {
		client.SendMessage(msg)
	}
}

func (r *Room) broadcastExceptLocked(excludeID string, msg *protocol.Message) {
	for id, client := range r.clients {
		if id != excludeID {
			client.SendMessage(msg)
		}
	}
}

// sendAllCardsLocked 给每个在线玩家私发手牌
func (r *Room) sendAllCardsLocked() {
	for _, player := range r.game.Roster().AllPlayersTeamOrdered() {
		if client, ok := r.clients[player.ID]; ok {
			client.SendMessage(protocol.MustNewMessage(protocol.MsgYourCards, protocol.YourCardsPayload{
				Cards: player.Cards(),
			}))
		}
	}
}

// announceMatchOverLocked 广播终局并记录排行榜。
// 此刻引擎还停在 Finished、比分尚未清零，直接取快照。
func (r *Room) announceMatchOverLocked() {
	ros := r.game.Roster()
	winner := r.game.Winner()
	if winner == nil {
		return
	}

	scores := make([]int, 0, len(ros.Teams))
	games := make([]int, 0, len(ros.Teams))
	for _, team := range ros.Teams {
		scores = append(scores, team.Score)
		games = append(games, team.Games)
	}

	r.broadcastLocked(protocol.MustNewMessage(protocol.MsgMatchOver, protocol.MatchOverPayload{
		WinnerTeam: *winner,
		Scores:     scores,
		Games:      games,
	}))

	log.Printf("🎮 比赛结束！牌桌 %s，获胜队伍: %d", r.Code, *winner)

	if r.manager == nil || r.manager.leaderboard == nil {
		return
	}

	type result struct {
		clientID, nickname string
		won                bool
		stones             int
	}
	var results []result
	for _, player := range ros.AllPlayersTeamOrdered() {
		results = append(results, result{
			clientID: player.ID,
			nickname: r.nicknames[player.ID],
			won:      player.TeamID() == *winner,
			stones:   ros.Teams[player.TeamID()].Score,
		})
	}

	leaderboard := r.manager.leaderboard
	go func() {
		ctx := context.Background()
		for _, res := range results {
			if err := leaderboard.RecordMatchResult(ctx, res.clientID, res.nickname, res.won, res.stones); err != nil {
				log.Printf("记录比赛结果失败: %v", err)
			}
		}
	}()
}

// saveSnapshotLocked 异步保存牌桌快照
func (r *Room) saveSnapshotLocked() {
	if r.manager == nil || r.manager.store == nil {
		return
	}

	ros := r.game.Roster()
	data := &storage.TableData{
		Code:       r.Code,
		State:      string(r.game.CurrentState()),
		TurnNumber: r.game.TurnNumber(),
		CreatedAt:  r.CreatedAt.Unix(),
	}
	for _, player := range ros.AllPlayersTeamOrdered() {
		data.Players = append(data.Players, storage.TablePlayerData{
			ClientID: player.ID,
			Nickname: r.nicknames[player.ID],
			Seat:     player.PublicID,
			TeamID:   player.TeamID(),
		})
	}
	for _, team := range ros.Teams {
		data.Scores = append(data.Scores, team.Score)
		data.Games = append(data.Games, team.Games)
	}

	store := r.manager.store
	go func() { _ = store.SaveTable(context.Background(), data) }()
}
