package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLeaderboardManager(t *testing.T) (*LeaderboardManager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	lm := NewLeaderboardManager(client)
	return lm, mr
}

func TestLeaderboard_RecordMatchResult_NewPlayer(t *testing.T) {
	t.Parallel()

	lm, mr := newTestLeaderboardManager(t)
	defer mr.Close()
	ctx := context.Background()

	// Winning team reached 40 stones
	err := lm.RecordMatchResult(ctx, "p1", "Amaia", true, 40)
	require.NoError(t, err)

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, "p1", stats.PlayerID)
	assert.Equal(t, "Amaia", stats.Nickname)
	assert.Equal(t, 1, stats.TotalGames)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 0, stats.Losses)
	assert.Equal(t, 40+MatchWinBonus, stats.Points)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestLeaderboard_RecordMatchResult_Loser(t *testing.T) {
	t.Parallel()

	lm, mr := newTestLeaderboardManager(t)
	defer mr.Close()
	ctx := context.Background()

	// Losers still bank the stones their team scored, but no win bonus
	err := lm.RecordMatchResult(ctx, "p1", "Mikel", false, 23)
	require.NoError(t, err)

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 23, stats.Points)
	assert.Equal(t, -1, stats.CurrentStreak)
}

func TestLeaderboard_StreakBonus(t *testing.T) {
	t.Parallel()

	lm, mr := newTestLeaderboardManager(t)
	defer mr.Close()
	ctx := context.Background()

	// Three wins in a row: the third one adds StreakBonus3
	for i := 0; i < 3; i++ {
		err := lm.RecordMatchResult(ctx, "p1", "Amaia", true, 40)
		require.NoError(t, err)
	}

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)

	// 1st: 40+10, 2nd: 40+10, 3rd: 40+10+5
	assert.Equal(t, 3*(40+MatchWinBonus)+StreakBonus3, stats.Points)
	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 3, stats.MaxWinStreak)
}

func TestLeaderboard_GetLeaderboard(t *testing.T) {
	t.Parallel()

	lm, mr := newTestLeaderboardManager(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, lm.RecordMatchResult(ctx, "p1", "Amaia", true, 40)) // 50
	require.NoError(t, lm.RecordMatchResult(ctx, "p2", "Mikel", false, 15))

	entries, err := lm.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "p1", entries[0].PlayerID)
	assert.Equal(t, "Amaia", entries[0].Nickname)
	assert.Equal(t, 50, entries[0].Points)

	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "p2", entries[1].PlayerID)
	assert.Equal(t, 15, entries[1].Points)
}

func TestLeaderboard_GetPlayerRank(t *testing.T) {
	t.Parallel()

	lm, mr := newTestLeaderboardManager(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, lm.RecordMatchResult(ctx, "p1", "Amaia", true, 40))
	require.NoError(t, lm.RecordMatchResult(ctx, "p2", "Mikel", false, 15))

	rank, err := lm.GetPlayerRank(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	rank, err = lm.GetPlayerRank(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	rank, err = lm.GetPlayerRank(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), rank)
}

func TestLeaderboard_PointsNeverNegative(t *testing.T) {
	t.Parallel()

	lm, mr := newTestLeaderboardManager(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, lm.RecordMatchResult(ctx, "p1", "Amaia", false, 0))

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Points)
}
