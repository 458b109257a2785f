package mus

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickaelseznec/mus/internal/game/card"
	"github.com/mickaelseznec/mus/internal/game/roster"
	"github.com/mickaelseznec/mus/internal/protocol"
)

// newTestGame returns a deterministic game so deals are reproducible.
func newTestGame(t *testing.T) *Game {
	t.Helper()
	return NewWithRand(DefaultMaxScore, rand.New(rand.NewPCG(42, 42)))
}

// addPlayers joins n players alternating teams 0, 1, 0, 1.
func addPlayers(t *testing.T, g *Game, n int) []*roster.Player {
	t.Helper()

	players := make([]*roster.Player, n)
	for i := range n {
		resp := g.Apply(Action{Type: protocol.ActionAddPlayer, TeamID: i % 2})
		require.Equal(t, protocol.StatusOK, resp.Status)
		players[i] = resp.Result.(*roster.Player)
	}
	return players
}

// startedOneVsOne returns a started 1v1 game in the Speaking phase.
// The first player is echku and their team speaks first.
func startedOneVsOne(t *testing.T) (*Game, *roster.Player, *roster.Player) {
	t.Helper()

	g := newTestGame(t)
	players := addPlayers(t, g, 2)
	resp := g.Apply(Action{Type: protocol.ActionStartGame, PlayerID: players[0].ID})
	require.Equal(t, protocol.StatusOK, resp.Status)
	require.Equal(t, protocol.StateSpeaking, g.CurrentState())
	return g, players[0], players[1]
}

// setHand overrides a player's hand with the given values (suits spread
// to keep the cards distinct).
func setHand(p *roster.Player, values ...int) {
	cards := make([]card.Card, len(values))
	for i, v := range values {
		cards[i] = card.Card{Value: v, Suit: card.Suits[i%len(card.Suits)]}
	}
	p.SetCards(cards)
}

// toHaundia declines the redeal so betting starts with known hands.
func toHaundia(t *testing.T, g *Game, speaker *roster.Player) {
	t.Helper()

	resp := g.Apply(Action{Type: protocol.ActionMintza, PlayerID: speaker.ID})
	require.Equal(t, protocol.StatusOK, resp.Status)
	require.Equal(t, protocol.StateHaundia, g.CurrentState())
}

func apply(t *testing.T, g *Game, act Action) Response {
	t.Helper()

	resp := g.Apply(act)
	require.Equal(t, protocol.StatusOK, resp.Status, "action %s", act.Type)
	return resp
}

func TestLobby_AddRemoveStart(t *testing.T) {
	t.Parallel()

	g := newTestGame(t)

	// Cannot start before both teams are filled evenly
	resp := g.Apply(Action{Type: protocol.ActionStartGame, PlayerID: "anyone"})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)

	players := addPlayers(t, g, 2)
	assert.Equal(t, 0, players[0].PublicID)
	assert.Equal(t, 1, players[1].PublicID)

	// Joining the same team again is idempotent
	resp = g.Apply(Action{Type: protocol.ActionAddPlayer, PlayerID: players[0].ID, TeamID: 0})
	require.Equal(t, protocol.StatusOK, resp.Status)
	assert.Same(t, players[0], resp.Result.(*roster.Player))

	resp = g.Apply(Action{Type: protocol.ActionRemovePlayer, PlayerID: players[1].ID})
	require.Equal(t, protocol.StatusOK, resp.Status)

	// Unbalanced again
	resp = g.Apply(Action{Type: protocol.ActionStartGame, PlayerID: players[0].ID})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)
}

func TestLobby_InvalidTeam(t *testing.T) {
	t.Parallel()

	g := newTestGame(t)
	resp := g.Apply(Action{Type: protocol.ActionAddPlayer, TeamID: 2})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)
}

func TestLobby_StartDealsHands(t *testing.T) {
	t.Parallel()

	g := newTestGame(t)
	players := addPlayers(t, g, 4)
	apply(t, g, Action{Type: protocol.ActionStartGame, PlayerID: players[0].ID})

	for _, p := range players {
		require.Len(t, p.Cards(), roster.HandSize)
		for i := 1; i < roster.HandSize; i++ {
			assert.LessOrEqual(t, card.Compare(p.Cards()[i-1], p.Cards()[i]), 0)
		}
	}

	// Echku order interleaves the teams by join order
	assert.Equal(t, []int{0, 1, 2, 3}, g.Status().EchkuOrder)
}

func TestGetCards(t *testing.T) {
	t.Parallel()

	g := newTestGame(t)
	players := addPlayers(t, g, 2)

	// Not available in the lobby: no cards have been dealt yet
	resp := g.Apply(Action{Type: protocol.ActionGetCards, PlayerID: players[0].ID})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)

	apply(t, g, Action{Type: protocol.ActionStartGame, PlayerID: players[0].ID})

	resp = apply(t, g, Action{Type: protocol.ActionGetCards, PlayerID: players[0].ID})
	assert.Len(t, resp.Result.([]card.Card), roster.HandSize)

	resp = g.Apply(Action{Type: protocol.ActionGetCards, PlayerID: "stranger"})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)
}

func TestApply_EmptyPlayerID(t *testing.T) {
	t.Parallel()

	g := newTestGame(t)
	resp := g.Apply(Action{Type: protocol.ActionStartGame})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)
}

func TestSpeaking_MintzaSkipsTrading(t *testing.T) {
	t.Parallel()

	g, a, _ := startedOneVsOne(t)
	toHaundia(t, g, a)
	assert.Equal(t, protocol.StateHaundia, g.CurrentState())
}

func TestSpeaking_BothMusEnterTrading(t *testing.T) {
	t.Parallel()

	g, a, b := startedOneVsOne(t)

	apply(t, g, Action{Type: protocol.ActionMus, PlayerID: a.ID})
	assert.Equal(t, protocol.StateSpeaking, g.CurrentState())

	// After the first mus the word passes to the other team
	resp := g.Apply(Action{Type: protocol.ActionMus, PlayerID: a.ID})
	assert.Equal(t, protocol.StatusWrongPlayer, resp.Status)

	apply(t, g, Action{Type: protocol.ActionMus, PlayerID: b.ID})
	assert.Equal(t, protocol.StateTrading, g.CurrentState())
}

func TestSpeaking_WrongTeamCannotOpen(t *testing.T) {
	t.Parallel()

	g, _, b := startedOneVsOne(t)

	// Echku's team speaks first; the other team must wait
	resp := g.Apply(Action{Type: protocol.ActionMintza, PlayerID: b.ID})
	assert.Equal(t, protocol.StatusWrongPlayer, resp.Status)
}

func TestSpeaking_BettingVerbsForbidden(t *testing.T) {
	t.Parallel()

	g, a, _ := startedOneVsOne(t)
	resp := g.Apply(Action{Type: protocol.ActionPaso, PlayerID: a.ID})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)
}

func enterTrading(t *testing.T, g *Game, a, b *roster.Player) {
	t.Helper()
	apply(t, g, Action{Type: protocol.ActionMus, PlayerID: a.ID})
	apply(t, g, Action{Type: protocol.ActionMus, PlayerID: b.ID})
	require.Equal(t, protocol.StateTrading, g.CurrentState())
}

func TestTrading_EmptyConfirmForbidden(t *testing.T) {
	t.Parallel()

	g, a, b := startedOneVsOne(t)
	enterTrading(t, g, a, b)

	resp := g.Apply(Action{Type: protocol.ActionConfirm, PlayerID: a.ID})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)
}

func TestTrading_ExchangeFlow(t *testing.T) {
	t.Parallel()

	g, a, b := startedOneVsOne(t)
	enterTrading(t, g, a, b)

	keptA := []card.Card{a.Cards()[0], a.Cards()[1], a.Cards()[3]}

	apply(t, g, Action{Type: protocol.ActionToggle, PlayerID: a.ID, Index: 2})
	apply(t, g, Action{Type: protocol.ActionConfirm, PlayerID: a.ID})
	assert.Equal(t, protocol.StateTrading, g.CurrentState())

	// A confirmed: no more changes of mind
	resp := g.Apply(Action{Type: protocol.ActionToggle, PlayerID: a.ID, Index: 0})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)
	resp = g.Apply(Action{Type: protocol.ActionConfirm, PlayerID: a.ID})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)

	apply(t, g, Action{Type: protocol.ActionChange, PlayerID: b.ID, Indices: []int{0, 1}})
	apply(t, g, Action{Type: protocol.ActionConfirm, PlayerID: b.ID})

	// All confirmed: cards swapped, back to Speaking
	assert.Equal(t, protocol.StateSpeaking, g.CurrentState())
	require.Len(t, a.Cards(), roster.HandSize)
	for _, kept := range keptA {
		assert.Contains(t, a.Cards(), kept)
	}
}

func TestTrading_ToggleTwiceDeselects(t *testing.T) {
	t.Parallel()

	g, a, b := startedOneVsOne(t)
	enterTrading(t, g, a, b)

	apply(t, g, Action{Type: protocol.ActionToggle, PlayerID: a.ID, Index: 1})
	apply(t, g, Action{Type: protocol.ActionToggle, PlayerID: a.ID, Index: 1})

	// Back to zero selections: confirm is forbidden again
	resp := g.Apply(Action{Type: protocol.ActionConfirm, PlayerID: a.ID})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)
}

func TestTrading_IndexOutOfRange(t *testing.T) {
	t.Parallel()

	g, a, b := startedOneVsOne(t)
	enterTrading(t, g, a, b)

	resp := g.Apply(Action{Type: protocol.ActionToggle, PlayerID: a.ID, Index: 4})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)
	resp = g.Apply(Action{Type: protocol.ActionChange, PlayerID: a.ID, Indices: []int{0, -1}})
	assert.Equal(t, protocol.StatusForbidden, resp.Status)
}

func TestStatus_Projection(t *testing.T) {
	t.Parallel()

	g, a, b := startedOneVsOne(t)
	status := g.Status()

	assert.Equal(t, protocol.StateSpeaking, status.CurrentState)
	assert.Equal(t, 1, status.TurnNumber)
	assert.False(t, status.GameOver)
	assert.Nil(t, status.WinnerTeam)
	assert.Equal(t, []int{a.PublicID, b.PublicID}, status.EchkuOrder)

	require.Len(t, status.Players, 2)
	assert.True(t, status.Players[0].CanSpeak)
	assert.False(t, status.Players[1].CanSpeak)

	require.Len(t, status.Teams, 2)
	assert.Equal(t, 0, status.Teams[0].Score)

	// Speaking is projected after one mus
	apply(t, g, Action{Type: protocol.ActionMus, PlayerID: a.ID})
	status = g.Status()
	speaking, ok := status.States[protocol.StateSpeaking].(protocol.SpeakingStatus)
	require.True(t, ok)
	assert.Equal(t, []bool{true, false}, speaking.TeamSaidMus)
}
