// Package session 管理玩家会话，支撑断线重连。
package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

const (
	// 重连等待时间
	reconnectTimeout = 2 * time.Minute
	// 会话过期时间
	sessionExpireTime = 10 * time.Minute
)

// PlayerSession 玩家会话（用于断线重连）
type PlayerSession struct {
	ClientID       string
	Nickname       string
	ReconnectToken string
	RoomCode       string

	DisconnectedAt time.Time // 断线时间
	IsOnline       bool      // 是否在线

	mu sync.RWMutex
}

// Manager 会话管理器
type Manager struct {
	sessions map[string]*PlayerSession // clientID -> session
	tokens   map[string]string         // token -> clientID
	mu       sync.RWMutex
}

// NewManager 创建会话管理器
func NewManager() *Manager {
	sm := &Manager{
		sessions: make(map[string]*PlayerSession),
		tokens:   make(map[string]string),
	}

	// 启动会话清理协程
	go sm.cleanupLoop()

	return sm
}

// Create 创建新会话
func (sm *Manager) Create(clientID, nickname string) *PlayerSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	token := generateToken()

	session := &PlayerSession{
		ClientID:       clientID,
		Nickname:       nickname,
		ReconnectToken: token,
		IsOnline:       true,
	}

	sm.sessions[clientID] = session
	sm.tokens[token] = clientID

	return session
}

// Get 获取会话
func (sm *Manager) Get(clientID string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[clientID]
}

// GetByToken 通过 token 获取会话
func (sm *Manager) GetByToken(token string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	clientID, ok := sm.tokens[token]
	if !ok {
		return nil
	}
	return sm.sessions[clientID]
}

// SetOffline 设置玩家离线
func (sm *Manager) SetOffline(clientID string) {
	sm.mu.RLock()
	session, ok := sm.sessions[clientID]
	sm.mu.RUnlock()

	if ok {
		session.mu.Lock()
		session.IsOnline = false
		session.DisconnectedAt = time.Now()
		session.mu.Unlock()
	}
}

// SetOnline 设置玩家上线
func (sm *Manager) SetOnline(clientID string) {
	sm.mu.RLock()
	session, ok := sm.sessions[clientID]
	sm.mu.RUnlock()

	if ok {
		session.mu.Lock()
		session.IsOnline = true
		session.DisconnectedAt = time.Time{}
		session.mu.Unlock()
	}
}

// SetNickname 更新会话中的昵称
func (sm *Manager) SetNickname(clientID, nickname string) {
	sm.mu.RLock()
	session, ok := sm.sessions[clientID]
	sm.mu.RUnlock()

	if ok {
		session.mu.Lock()
		session.Nickname = nickname
		session.mu.Unlock()
	}
}

// SetRoom 设置玩家所在牌桌
func (sm *Manager) SetRoom(clientID, roomCode string) {
	sm.mu.RLock()
	session, ok := sm.sessions[clientID]
	sm.mu.RUnlock()

	if ok {
		session.mu.Lock()
		session.RoomCode = roomCode
		session.mu.Unlock()
	}
}

// Delete 删除会话
func (sm *Manager) Delete(clientID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, ok := sm.sessions[clientID]; ok {
		delete(sm.tokens, session.ReconnectToken)
		delete(sm.sessions, clientID)
	}
}

// CanReconnect 检查 token 是否还能重连
func (sm *Manager) CanReconnect(token string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	clientID, ok := sm.tokens[token]
	if !ok {
		return false
	}

	session, ok := sm.sessions[clientID]
	if !ok {
		return false
	}

	session.mu.RLock()
	defer session.mu.RUnlock()

	// 检查是否在重连时限内
	if !session.IsOnline && time.Since(session.DisconnectedAt) > reconnectTimeout {
		return false
	}

	return true
}

// IsOnline 检查玩家是否在线
func (sm *Manager) IsOnline(clientID string) bool {
	sm.mu.RLock()
	session, ok := sm.sessions[clientID]
	sm.mu.RUnlock()

	if !ok {
		return false
	}

	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.IsOnline
}

// cleanupLoop 定期清理过期会话
func (sm *Manager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		sm.cleanup()
	}
}

// cleanup 清理过期会话
func (sm *Manager) cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	for clientID, session := range sm.sessions {
		session.mu.RLock()
		// 清理离线超过会话过期时间的会话
		if !session.IsOnline && now.Sub(session.DisconnectedAt) > sessionExpireTime {
			delete(sm.tokens, session.ReconnectToken)
			delete(sm.sessions, clientID)
		}
		session.mu.RUnlock()
	}
}

// generateToken 生成随机 token
func generateToken() string {
	bytes := make([]byte, 32)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
