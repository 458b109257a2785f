// Package storage 封装 Redis 持久化：牌桌快照、会话与排行榜。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	tableKeyPrefix   = "table:"
	sessionKeyPrefix = "session:"

	// 牌桌数据过期时间
	tableExpiration = 2 * time.Hour
)

// TableData 牌桌快照（用于 Redis 序列化，重启后可查询恢复展示）
type TableData struct {
	Code       string            `json:"code"`
	State      string            `json:"state"`
	TurnNumber int               `json:"turn_number"`
	Players    []TablePlayerData `json:"players"`
	Scores     []int             `json:"scores"` // 按队伍下标
	Games      []int             `json:"games"`
	CreatedAt  int64             `json:"created_at"`
}

// TablePlayerData 牌桌内玩家数据
type TablePlayerData struct {
	ClientID string `json:"client_id"`
	Nickname string `json:"nickname"`
	Seat     int    `json:"seat"`
	TeamID   int    `json:"team_id"`
}

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// --- 牌桌快照 ---

// SaveTable 保存牌桌快照
func (rs *RedisStore) SaveTable(ctx context.Context, data *TableData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化牌桌数据失败: %w", err)
	}

	key := tableKeyPrefix + data.Code
	return rs.client.Set(ctx, key, jsonData, tableExpiration).Err()
}

// LoadTable 加载牌桌快照，不存在时返回 nil
func (rs *RedisStore) LoadTable(ctx context.Context, code string) (*TableData, error) {
	key := tableKeyPrefix + code
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var tableData TableData
	if err := json.Unmarshal(data, &tableData); err != nil {
		return nil, fmt.Errorf("反序列化牌桌数据失败: %w", err)
	}

	return &tableData, nil
}

// DeleteTable 删除牌桌快照
func (rs *RedisStore) DeleteTable(ctx context.Context, code string) error {
	key := tableKeyPrefix + code
	return rs.client.Del(ctx, key).Err()
}

// AllTableCodes 获取所有牌桌号
func (rs *RedisStore) AllTableCodes(ctx context.Context) ([]string, error) {
	keys, err := rs.client.Keys(ctx, tableKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	codes := make([]string, len(keys))
	for i, key := range keys {
		codes[i] = key[len(tableKeyPrefix):]
	}
	return codes, nil
}

// --- 会话存储 ---

// SessionData 会话数据（用于 Redis 序列化）
type SessionData struct {
	ClientID       string `json:"client_id"`
	Nickname       string `json:"nickname"`
	ReconnectToken string `json:"token"`
	RoomCode       string `json:"room_code"`
	IsOnline       bool   `json:"is_online"`
	DisconnectedAt int64  `json:"disconnected_at,omitempty"`
}

// SaveSession 保存会话
func (rs *RedisStore) SaveSession(ctx context.Context, session *SessionData) error {
	data := map[string]any{
		"client_id": session.ClientID,
		"nickname":  session.Nickname,
		"token":     session.ReconnectToken,
		"room_code": session.RoomCode,
		"is_online": session.IsOnline,
	}

	if session.DisconnectedAt != 0 {
		data["disconnected_at"] = session.DisconnectedAt
	}

	key := sessionKeyPrefix + session.ClientID
	return rs.client.HSet(ctx, key, data).Err()
}

// LoadSession 加载会话，不存在时返回 nil
func (rs *RedisStore) LoadSession(ctx context.Context, clientID string) (*SessionData, error) {
	key := sessionKeyPrefix + clientID
	data, err := rs.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	session := &SessionData{
		ClientID:       data["client_id"],
		Nickname:       data["nickname"],
		ReconnectToken: data["token"],
		RoomCode:       data["room_code"],
		IsOnline:       data["is_online"] == "1",
	}

	return session, nil
}

// DeleteSession 删除会话
func (rs *RedisStore) DeleteSession(ctx context.Context, clientID string) error {
	key := sessionKeyPrefix + clientID
	return rs.client.Del(ctx, key).Err()
}

// SetTableExpiration 设置牌桌过期时间
func (rs *RedisStore) SetTableExpiration(ctx context.Context, code string, expiration time.Duration) error {
	key := tableKeyPrefix + code
	return rs.client.Expire(ctx, key, expiration).Err()
}
