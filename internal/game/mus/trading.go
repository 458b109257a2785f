package mus

import (
	"github.com/mickaelseznec/mus/internal/apperrors"
	"github.com/mickaelseznec/mus/internal/game/roster"
	"github.com/mickaelseznec/mus/internal/protocol"
)

// tradingPhase 换牌阶段：每人各自勾选要换的牌位再确认。
// 所有人同时操作，没有行动顺序；确认后不可反悔。
// 全员确认后统一换牌并回到宣言阶段。
type tradingPhase struct {
	phaseCore
	asks           map[string]map[int]bool
	waitingConfirm map[string]bool
}

func newTradingPhase(g *Game) *tradingPhase {
	return &tradingPhase{phaseCore: phaseCore{game: g}}
}

func (p *tradingPhase) availableActions() []protocol.ActionType {
	return []protocol.ActionType{protocol.ActionChange, protocol.ActionToggle, protocol.ActionConfirm}
}

func (p *tradingPhase) isPlayerAuthorized(string) bool { return true }

func (p *tradingPhase) onEntry() {
	p.resetHistory()
	p.asks = make(map[string]map[int]bool)
	p.waitingConfirm = make(map[string]bool)
	for _, player := range p.game.roster.AllPlayersTeamOrdered() {
		p.asks[player.ID] = make(map[int]bool)
		p.waitingConfirm[player.ID] = true
	}
}

func (p *tradingPhase) handle(act Action) (protocol.GameState, any, error) {
	// 确认后不可再改主意，也不可重复确认
	if !p.waitingConfirm[act.PlayerID] {
		return protocol.StateTrading, nil, apperrors.ErrForbidden
	}

	switch act.Type {
	case protocol.ActionChange:
		for _, index := range act.Indices {
			if !validCardIndex(index) {
				return protocol.StateTrading, nil, apperrors.ErrForbidden
			}
		}
		asks := make(map[int]bool, len(act.Indices))
		for _, index := range act.Indices {
			asks[index] = true
		}
		p.asks[act.PlayerID] = asks
		return protocol.StateTrading, nil, nil

	case protocol.ActionToggle:
		if !validCardIndex(act.Index) {
			return protocol.StateTrading, nil, apperrors.ErrForbidden
		}
		if p.asks[act.PlayerID][act.Index] {
			delete(p.asks[act.PlayerID], act.Index)
		} else {
			p.asks[act.PlayerID][act.Index] = true
		}
		return protocol.StateTrading, nil, nil

	default: // confirm：至少要换一张才能确认
		if len(p.asks[act.PlayerID]) == 0 {
			return protocol.StateTrading, nil, apperrors.ErrForbidden
		}
		p.waitingConfirm[act.PlayerID] = false
		for _, waiting := range p.waitingConfirm {
			if waiting {
				return protocol.StateTrading, nil, nil
			}
		}
		return protocol.StateSpeaking, nil, nil
	}
}

// onExit 全员确认后才真正换牌
func (p *tradingPhase) onExit() {
	for _, player := range p.game.roster.AllPlayersTeamOrdered() {
		player.ExchangeCards(p.asks[player.ID], p.game.deck)
	}
}

func (p *tradingPhase) publicRepresentation() any {
	status := protocol.TradingStatus{
		AskCounts: make(map[int]int),
		Confirmed: make(map[int]bool),
	}
	for _, player := range p.game.roster.AllPlayersTeamOrdered() {
		status.AskCounts[player.PublicID] = len(p.asks[player.ID])
		status.Confirmed[player.PublicID] = !p.waitingConfirm[player.ID]
	}
	return status
}

func validCardIndex(index int) bool {
	return 0 <= index && index < roster.HandSize
}
