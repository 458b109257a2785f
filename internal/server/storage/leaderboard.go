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
	// Redis key
	playerStatsKey    = "player:stats:"
	leaderboardKey    = "leaderboard:points"
	weeklyLeaderboard = "leaderboard:weekly:"
)

// 积分规则
const (
	// 赢下整场比赛的固定加成，叠加在本场石子数之上
	MatchWinBonus = 10
	// 连胜加成
	StreakBonus3 = 5
	StreakBonus5 = 15
)

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`

	TotalGames int `json:"total_games"` // 总场次
	Wins       int `json:"wins"`        // 胜场
	Losses     int `json:"losses"`      // 败场

	// 积分：累计石子数 + 胜场与连胜加成
	Points int `json:"points"`

	CurrentStreak int `json:"current_streak"` // 正数为连胜，负数为连败
	MaxWinStreak  int `json:"max_win_streak"` // 最大连胜

	LastPlayedAt int64 `json:"last_played_at"` // 最后游戏时间
	CreatedAt    int64 `json:"created_at"`     // 首次游戏时间
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Points   int    `json:"points"`
	Wins     int    `json:"wins"`
}

// LeaderboardManager 排行榜管理器
type LeaderboardManager struct {
	redis *redis.Client
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client}
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	key := playerStatsKey + playerID
	data, err := lm.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SavePlayerStats 保存玩家统计
func (lm *LeaderboardManager) SavePlayerStats(ctx context.Context, stats *PlayerStats) error {
	key := playerStatsKey + stats.PlayerID
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lm.redis.Set(ctx, key, data, 0).Err()
}

// getOrCreateStats 获取或创建玩家统计
func (lm *LeaderboardManager) getOrCreateStats(ctx context.Context, playerID, nickname string) (*PlayerStats, error) {
	stats, err := lm.GetPlayerStats(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if stats == nil {
		return &PlayerStats{
			PlayerID:  playerID,
			Nickname:  nickname,
			CreatedAt: time.Now().Unix(),
		}, nil
	}
	return stats, nil
}

// updateWinLossStats 更新胜负统计和连胜/连败
func updateWinLossStats(stats *PlayerStats, isWinner bool) {
	if isWinner {
		stats.Wins++
		stats.CurrentStreak = max(1, stats.CurrentStreak+1)
	} else {
		stats.Losses++
		stats.CurrentStreak = min(-1, stats.CurrentStreak-1)
	}

	if stats.CurrentStreak > stats.MaxWinStreak {
		stats.MaxWinStreak = stats.CurrentStreak
	}
}

// calculateStreakBonus 计算连胜加成
func calculateStreakBonus(streak int) int {
	switch {
	case streak >= 5:
		return StreakBonus5
	case streak >= 3:
		return StreakBonus3
	default:
		return 0
	}
}

// RecordMatchResult 记录一场比赛的结果。
// stones 是该玩家队伍本场拿到的石子数，胜负双方都按此入账。
func (lm *LeaderboardManager) RecordMatchResult(ctx context.Context, playerID, nickname string, isWinner bool, stones int) error {
	stats, err := lm.getOrCreateStats(ctx, playerID, nickname)
	if err != nil {
		return err
	}

	// 更新基本信息
	stats.Nickname = nickname
	stats.TotalGames++
	stats.LastPlayedAt = time.Now().Unix()

	updateWinLossStats(stats, isWinner)

	// 积分：石子数打底，胜者叠加胜场与连胜加成
	pointsChange := stones
	if isWinner {
		pointsChange += MatchWinBonus + calculateStreakBonus(stats.CurrentStreak)
	}
	stats.Points = max(0, stats.Points+pointsChange)

	// 保存并更新排行榜
	if err := lm.SavePlayerStats(ctx, stats); err != nil {
		return err
	}
	return lm.UpdateLeaderboard(ctx, stats)
}

// UpdateLeaderboard 更新排行榜
func (lm *LeaderboardManager) UpdateLeaderboard(ctx context.Context, stats *PlayerStats) error {
	// 更新总排行榜
	if err := lm.redis.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(stats.Points),
		Member: stats.PlayerID,
	}).Err(); err != nil {
		return err
	}

	// 更新每周排行榜
	year, week := time.Now().ISOWeek()
	weeklyKey := fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	if err := lm.redis.ZAdd(ctx, weeklyKey, redis.Z{
		Score:  float64(stats.Points),
		Member: stats.PlayerID,
	}).Err(); err != nil {
		return err
	}
	// 设置过期时间（8天）
	lm.redis.Expire(ctx, weeklyKey, 8*24*time.Hour)

	return nil
}

// GetLeaderboard 获取总排行榜（从高到低）
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	results, err := lm.redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, _ := result.Member.(string)

		stats, err := lm.GetPlayerStats(ctx, playerID)
		if err != nil || stats == nil {
			continue
		}

		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: playerID,
			Nickname: stats.Nickname,
			Points:   int(result.Score),
			Wins:     stats.Wins,
		})
	}

	return entries, nil
}

// GetPlayerRank 获取玩家排名，未上榜返回 -1
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}
