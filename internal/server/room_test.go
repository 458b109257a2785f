package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickaelseznec/mus/internal/apperrors"
	"github.com/mickaelseznec/mus/internal/protocol"
	"github.com/mickaelseznec/mus/internal/server/session"
	"github.com/mickaelseznec/mus/internal/testutil"
)

func newTestRoomManager() *RoomManager {
	// No Redis in unit tests: snapshots and leaderboard are skipped
	return &RoomManager{
		rooms:    make(map[string]*Room),
		sessions: session.NewManager(),
		maxScore: 40,
	}
}

func newSeatedRoom(t *testing.T, rm *RoomManager) (*Room, *testutil.SimpleClient, *testutil.SimpleClient) {
	t.Helper()

	a := &testutil.SimpleClient{ID: "client-a", Name: "Amaia"}
	b := &testutil.SimpleClient{ID: "client-b", Name: "Mikel"}

	room, _, err := rm.CreateRoom(a, "Amaia", 0)
	require.NoError(t, err)
	_, _, err = rm.JoinRoom(b, room.Code, "Mikel", 1)
	require.NoError(t, err)

	return room, a, b
}

func applyAction(t *testing.T, room *Room, client *testutil.SimpleClient, payload protocol.GameActionPayload) {
	t.Helper()

	room.HandleAction(client, payload)
	results := client.MessagesOfType(protocol.MsgActionResult)
	require.NotEmpty(t, results)
	result, err := protocol.ParsePayload[protocol.ActionResultPayload](results[len(results)-1])
	require.NoError(t, err)
	require.Equal(t, protocol.StatusOK, result.Result, "action %s", payload.Action)
}

func TestCreateRoom(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	a := &testutil.SimpleClient{ID: "client-a", Name: "Amaia"}

	room, player, err := rm.CreateRoom(a, "Amaia", 0)
	require.NoError(t, err)
	assert.Len(t, room.Code, roomCodeLength)
	assert.Equal(t, 0, player.PublicID)
	assert.Equal(t, 0, player.TeamID())
	assert.Equal(t, room.Code, a.RoomCode)
	assert.Same(t, room, rm.GetRoom(room.Code))
}

func TestJoinRoom(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	room, a, _ := newSeatedRoom(t, rm)

	// The first player is told about the newcomer
	joined := a.MessagesOfType(protocol.MsgPlayerJoined)
	require.Len(t, joined, 1)
	payload, err := protocol.ParsePayload[protocol.PlayerJoinedPayload](joined[0])
	require.NoError(t, err)
	assert.Equal(t, "Mikel", payload.Player.Nickname)
	assert.Equal(t, 1, payload.Player.TeamID)

	infos := room.PlayerInfos()
	require.Len(t, infos, 2)
}

func TestJoinRoom_NotFound(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	c := &testutil.SimpleClient{ID: "c1"}

	_, _, err := rm.JoinRoom(c, "000000", "X", 0)
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestJoinRoom_Full(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	room, _, _ := newSeatedRoom(t, rm)

	c := &testutil.SimpleClient{ID: "client-c"}
	d := &testutil.SimpleClient{ID: "client-d"}
	e := &testutil.SimpleClient{ID: "client-e"}

	_, _, err := rm.JoinRoom(c, room.Code, "C", 0)
	require.NoError(t, err)
	_, _, err = rm.JoinRoom(d, room.Code, "D", 1)
	require.NoError(t, err)

	_, _, err = rm.JoinRoom(e, room.Code, "E", 0)
	assert.ErrorIs(t, err, apperrors.ErrRoomFull)
}

func TestLeaveRoom_InLobby(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	room, a, b := newSeatedRoom(t, rm)

	rm.LeaveRoom(b)
	assert.Empty(t, b.RoomCode)

	left := a.MessagesOfType(protocol.MsgPlayerLeft)
	require.Len(t, left, 1)

	// Last player out dissolves the table
	rm.LeaveRoom(a)
	assert.Nil(t, rm.GetRoom(room.Code))
}

func TestStartGame_DealsCardsAndBroadcastsState(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	room, a, b := newSeatedRoom(t, rm)

	applyAction(t, room, a, protocol.GameActionPayload{Action: protocol.ActionStartGame})

	// Everyone gets the public state and a private hand
	for _, c := range []*testutil.SimpleClient{a, b} {
		states := c.MessagesOfType(protocol.MsgGameState)
		require.NotEmpty(t, states)
		status, err := protocol.ParsePayload[protocol.GameStatus](states[len(states)-1])
		require.NoError(t, err)
		assert.Equal(t, protocol.StateSpeaking, status.CurrentState)

		hands := c.MessagesOfType(protocol.MsgYourCards)
		require.Len(t, hands, 1)
		cards, err := protocol.ParsePayload[protocol.YourCardsPayload](hands[0])
		require.NoError(t, err)
		assert.Len(t, cards.Cards, 4)
	}
}

func TestHandleAction_Rejected(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	room, a, _ := newSeatedRoom(t, rm)

	// Betting verbs are not available in the waiting room
	room.HandleAction(a, protocol.GameActionPayload{Action: protocol.ActionImido})

	results := a.MessagesOfType(protocol.MsgActionResult)
	require.Len(t, results, 1)
	result, err := protocol.ParsePayload[protocol.ActionResultPayload](results[0])
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusForbidden, result.Result)

	// Rejected actions never leak a state broadcast
	assert.Empty(t, a.MessagesOfType(protocol.MsgGameState))
}

func TestHandleAction_RemovePlayerGoesThroughLeaveRoom(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	room, a, _ := newSeatedRoom(t, rm)

	room.HandleAction(a, protocol.GameActionPayload{Action: protocol.ActionRemovePlayer})

	result, err := protocol.ParsePayload[protocol.ActionResultPayload](a.LastMessage())
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusForbidden, result.Result)
	assert.NotNil(t, rm.GetRoom(room.Code))
}

func TestHandleAction_GetCardsIsPrivate(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	room, a, b := newSeatedRoom(t, rm)

	applyAction(t, room, a, protocol.GameActionPayload{Action: protocol.ActionStartGame})

	before := len(b.Messages)
	applyAction(t, room, a, protocol.GameActionPayload{Action: protocol.ActionGetCards})

	hands := a.MessagesOfType(protocol.MsgYourCards)
	assert.Len(t, hands, 2) // deal + query
	assert.Len(t, b.Messages, before, "a private query must not reach other players")
}

func TestLeaveDuringGame_KeepsSeat(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	room, a, b := newSeatedRoom(t, rm)

	applyAction(t, room, a, protocol.GameActionPayload{Action: protocol.ActionStartGame})

	rm.LeaveRoom(b)

	// Engine refuses to drop players mid-game: the seat stays, the peer is told
	offline := a.MessagesOfType(protocol.MsgPlayerOffline)
	require.Len(t, offline, 1)
	assert.NotNil(t, room.game.Roster().PlayerByID("client-b"))
	assert.NotNil(t, rm.GetRoom(room.Code))
}

func TestReconnect_RestoresStateAndHand(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	room, a, b := newSeatedRoom(t, rm)

	applyAction(t, room, a, protocol.GameActionPayload{Action: protocol.ActionStartGame})
	rm.LeaveRoom(b)

	// Same identity, fresh connection
	b2 := &testutil.SimpleClient{ID: "client-b", Name: "Mikel"}
	require.NoError(t, rm.ReconnectPlayer(b2, room.Code))

	assert.Equal(t, room.Code, b2.RoomCode)
	assert.NotEmpty(t, b2.MessagesOfType(protocol.MsgGameState))
	assert.NotEmpty(t, b2.MessagesOfType(protocol.MsgYourCards))

	online := a.MessagesOfType(protocol.MsgPlayerOnline)
	require.Len(t, online, 1)
}

func TestReconnect_UnknownPlayer(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	room, _, _ := newSeatedRoom(t, rm)

	stranger := &testutil.SimpleClient{ID: "nobody"}
	err := rm.ReconnectPlayer(stranger, room.Code)
	assert.ErrorIs(t, err, apperrors.ErrNotInRoom)
}

func TestHordagoKanta_BroadcastsMatchOver(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	room, a, b := newSeatedRoom(t, rm)

	applyAction(t, room, a, protocol.GameActionPayload{Action: protocol.ActionStartGame})
	applyAction(t, room, a, protocol.GameActionPayload{Action: protocol.ActionMintza})
	applyAction(t, room, a, protocol.GameActionPayload{Action: protocol.ActionHordago})
	applyAction(t, room, b, protocol.GameActionPayload{Action: protocol.ActionKanta})

	// An accepted hordago decides the whole match on the spot
	for _, c := range []*testutil.SimpleClient{a, b} {
		overs := c.MessagesOfType(protocol.MsgMatchOver)
		require.Len(t, overs, 1)
		over, err := protocol.ParsePayload[protocol.MatchOverPayload](overs[0])
		require.NoError(t, err)
		assert.Contains(t, []int{0, 1}, over.WinnerTeam)
		assert.Equal(t, 40, over.Scores[over.WinnerTeam])
	}
}

func TestNotifyPlayerOffline_NotInRoom(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()

	mc := new(testutil.MockClient)
	mc.On("GetRoom").Return("")

	// Nothing to notify: no lookup beyond the room code
	rm.NotifyPlayerOffline(mc)
	mc.AssertExpectations(t)
}

func TestGetActiveGamesCount(t *testing.T) {
	t.Parallel()

	rm := newTestRoomManager()
	room, a, _ := newSeatedRoom(t, rm)

	assert.Equal(t, 0, rm.GetActiveGamesCount())

	applyAction(t, room, a, protocol.GameActionPayload{Action: protocol.ActionStartGame})
	assert.Equal(t, 1, rm.GetActiveGamesCount())
}
