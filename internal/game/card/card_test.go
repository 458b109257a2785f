package card

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCard_Points(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value  int
		points int
	}{
		{1, 1},
		{7, 7},
		{10, 10},
		{11, 10},
		{12, 10},
	}

	for _, tt := range tests {
		c := Card{Value: tt.value, Suit: Oros}
		assert.Equal(t, tt.points, c.Points(), "value %d", tt.value)
	}
}

func TestCard_Identity(t *testing.T) {
	t.Parallel()

	a := Card{Value: 5, Suit: Oros}
	b := Card{Value: 5, Suit: Copas}
	c := Card{Value: 5, Suit: Oros}

	// Same value, different suit: not the same card, but rank-equal
	assert.False(t, a.Is(b))
	assert.True(t, a.Is(c))
	assert.Zero(t, Compare(a, c))
	assert.NotZero(t, Compare(a, b))
}

func TestSuit_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Card{Value: 12, Suit: Bastos})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":12,"suit":"Bastos"}`, string(data))

	var c Card
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Equal(t, Card{Value: 12, Suit: Bastos}, c)
}

func TestNewDeck_FullPacket(t *testing.T) {
	t.Parallel()

	d := NewDeck(rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, PacketSize, d.DrawableCount())
	assert.Zero(t, d.DiscardedCount())

	// All 40 cards are distinct
	seen := make(map[Card]bool)
	for i := 0; i < PacketSize; i++ {
		seen[d.Draw()] = true
	}
	assert.Len(t, seen, PacketSize)
}

func TestDeck_RefillFromDiscard(t *testing.T) {
	t.Parallel()

	d := NewDeck(rand.New(rand.NewPCG(7, 7)))

	// Draw everything, discarding every card right away
	for i := 0; i < PacketSize; i++ {
		d.Discard(d.Draw())
	}
	assert.Zero(t, d.DrawableCount())
	assert.Equal(t, PacketSize, d.DiscardedCount())

	// Next draw triggers the reshuffle and never fails
	c := d.Draw()
	assert.Equal(t, PacketSize-1, d.DrawableCount())
	assert.Zero(t, d.DiscardedCount())
	assert.Contains(t, Values[:], c.Value)
}

func TestDeck_Conservation(t *testing.T) {
	t.Parallel()

	d := NewDeck(rand.New(rand.NewPCG(3, 9)))

	// Simulate four players holding four cards each
	hands := make([]Card, 0, 16)
	for i := 0; i < 16; i++ {
		hands = append(hands, d.Draw())
	}

	for round := 0; round < 50; round++ {
		i := round % len(hands)
		hands[i] = d.Exchange(hands[i])
		total := d.DrawableCount() + d.DiscardedCount() + len(hands)
		require.Equal(t, PacketSize, total, "round %d", round)
	}
}

func TestDeck_ExchangeReturnsDifferentCard(t *testing.T) {
	t.Parallel()

	d := NewDeck(rand.New(rand.NewPCG(11, 4)))
	old := d.Draw()
	got := d.Exchange(old)

	// The discarded card cannot come straight back while the draw pile is full
	assert.False(t, got.Is(old))
}

func TestSort_Ascending(t *testing.T) {
	t.Parallel()

	cards := []Card{
		{Value: 12, Suit: Copas},
		{Value: 1, Suit: Oros},
		{Value: 7, Suit: Espadas},
		{Value: 1, Suit: Copas},
	}
	Sort(cards)

	for i := 1; i < len(cards); i++ {
		assert.LessOrEqual(t, cards[i-1].Value, cards[i].Value)
	}
	assert.Equal(t, Card{Value: 1, Suit: Copas}, cards[0])
}
