package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mickaelseznec/mus/internal/apperrors"
	"github.com/mickaelseznec/mus/internal/protocol"
	"github.com/mickaelseznec/mus/internal/types"
)

// Handler 消息处理器
type Handler struct {
	server *Server
}

// NewHandler 创建处理器
func NewHandler(s *Server) *Handler {
	return &Handler{server: s}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	switch msg.Type {
	// 连接操作
	case protocol.MsgPing:
		h.handlePing(client, msg)
	case protocol.MsgReconnect:
		h.handleReconnect(client, msg)

	// 牌桌操作
	case protocol.MsgCreateRoom:
		h.handleCreateRoom(client, msg)
	case protocol.MsgJoinRoom:
		h.handleJoinRoom(client, msg)
	case protocol.MsgLeaveRoom:
		h.handleLeaveRoom(client)

	// 对局操作
	case protocol.MsgGameAction:
		h.handleGameAction(client, msg)

	// 信息查询
	case protocol.MsgGetStats:
		h.handleGetStats(client)
	case protocol.MsgGetLeaderboard:
		h.handleGetLeaderboard(client)

	default:
		log.Printf("未知消息类型: %s", msg.Type)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
	}
}

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	// 立即回复 pong
	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// handleReconnect 处理断线重连
func (h *Handler) handleReconnect(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ReconnectPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	// 验证重连令牌
	if !h.server.sessions.CanReconnect(payload.SessionToken) {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "重连令牌无效或已过期"))
		return
	}

	session := h.server.sessions.GetByToken(payload.SessionToken)
	if session == nil {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "会话不存在"))
		return
	}

	// 丢弃临时身份，换回旧身份
	oldID := client.GetID()
	h.server.UnregisterClient(oldID)
	h.server.sessions.Delete(oldID)
	client.SetIdentity(session.ClientID, session.Nickname)
	h.server.RegisterClient(session.ClientID, client)
	h.server.sessions.SetOnline(session.ClientID)

	reconnected := protocol.ReconnectedPayload{
		ClientID: session.ClientID,
	}

	// 如果之前在牌桌上，恢复席位
	if session.RoomCode != "" {
		if err := h.server.rooms.ReconnectPlayer(client, session.RoomCode); err == nil {
			reconnected.RoomCode = session.RoomCode
		}
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgReconnected, reconnected))

	log.Printf("🔄 玩家 %s (%s) 重连成功", session.Nickname, session.ClientID)
}

// handleCreateRoom 处理创建牌桌
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if client.GetRoom() != "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeAlreadyInRoom))
		return
	}

	nickname := payload.Nickname
	if nickname == "" {
		nickname = GenerateNickname()
	}

	room, player, err := h.server.rooms.CreateRoom(client, nickname, payload.TeamID)
	if err != nil {
		h.sendError(client, err)
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		RoomCode: room.Code,
		PlayerID: player.PublicID,
		TeamID:   player.TeamID(),
	}))
}

// handleJoinRoom 处理加入牌桌
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if client.GetRoom() != "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeAlreadyInRoom))
		return
	}

	nickname := payload.Nickname
	if nickname == "" {
		nickname = GenerateNickname()
	}

	room, player, err := h.server.rooms.JoinRoom(client, payload.RoomCode, nickname, payload.TeamID)
	if err != nil {
		h.sendError(client, err)
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomCode: room.Code,
		PlayerID: player.PublicID,
		TeamID:   player.TeamID(),
		Players:  room.PlayerInfos(),
	}))
}

// handleLeaveRoom 处理离开牌桌
func (h *Handler) handleLeaveRoom(client types.ClientInterface) {
	h.server.rooms.LeaveRoom(client)
}

// handleGameAction 处理对局动作
func (h *Handler) handleGameAction(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.GameActionPayload](msg)
	if err != nil || payload.Action == "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	room := h.server.rooms.GetRoom(client.GetRoom())
	if room == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeNotInRoom))
		return
	}

	room.HandleAction(client, payload)
}

// handleGetStats 处理个人统计查询
func (h *Handler) handleGetStats(client types.ClientInterface) {
	if h.server.leaderboard == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	stats, err := h.server.leaderboard.GetPlayerStats(ctx, client.GetID())
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
		return
	}

	payload := protocol.StatsPayload{Nickname: client.GetName(), WinRate: "0%"}
	if stats != nil {
		payload.Nickname = stats.Nickname
		payload.Wins = stats.Wins
		payload.Losses = stats.Losses
		payload.Points = stats.Points
		if stats.TotalGames > 0 {
			payload.WinRate = fmt.Sprintf("%.1f%%", float64(stats.Wins)/float64(stats.TotalGames)*100)
		}
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgStatsResult, payload))
}

// handleGetLeaderboard 处理排行榜查询
func (h *Handler) handleGetLeaderboard(client types.ClientInterface) {
	if h.server.leaderboard == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	entries, err := h.server.leaderboard.GetLeaderboard(ctx, 10)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
		return
	}

	payload := protocol.LeaderboardPayload{}
	for _, entry := range entries {
		payload.Entries = append(payload.Entries, protocol.LeaderboardEntry{
			Rank:     entry.Rank,
			Nickname: entry.Nickname,
			Wins:     entry.Wins,
			Points:   entry.Points,
		})
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgLeaderboardResult, payload))
}

// sendError 把错误映射成协议错误消息
func (h *Handler) sendError(client types.ClientInterface, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(protocol.NewErrorMessageWithText(gameErr.Code, gameErr.Message))
		return
	}
	client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}
