package mus

import (
	"github.com/mickaelseznec/mus/internal/apperrors"
	"github.com/mickaelseznec/mus/internal/protocol"
)

// finishedPhase 结算阶段：发放推迟的注和附加分，全员确认后开下一局。
// 任何发放把某队推到目标分就立即终止整场比赛，剩余发放作废。
type finishedPhase struct {
	phaseCore
	waitingConfirm map[string]bool
}

func newFinishedPhase(g *Game) *finishedPhase {
	return &finishedPhase{phaseCore: phaseCore{game: g}}
}

func (p *finishedPhase) availableActions() []protocol.ActionType {
	return []protocol.ActionType{protocol.ActionConfirm}
}

func (p *finishedPhase) isPlayerAuthorized(string) bool { return true }

func (p *finishedPhase) onEntry() {
	p.resetHistory()

	// 比赛已在下注途中分出胜负（tira 让分到顶）时不再结算
	if !p.game.roster.IsFinished() {
		p.awardDeferred()
	}

	// 无论比赛是否结束都要等全员确认，最后的结算画面才能翻页
	p.waitingConfirm = make(map[string]bool)
	for _, player := range p.game.roster.AllPlayersTeamOrdered() {
		p.waitingConfirm[player.ID] = true
	}
}

// awardDeferred 按 Haundia → Tipia → Pariak → Jokua 的顺序结算：
// 推迟的注发给比牌赢家，附加分总是发给赢家
func (p *finishedPhase) awardDeferred() {
	for _, state := range betStates {
		bet := p.game.phases[state].(*betPhase)
		if bet.winner == nil {
			continue
		}

		if bet.deferred {
			if won := p.game.roster.AddPoints(bet.bid, *bet.winner); won {
				p.game.setFinished()
				return
			}
		}
		if bet.bonus > 0 {
			if won := p.game.roster.AddPoints(bet.bonus, *bet.winner); won {
				p.game.setFinished()
				return
			}
		}
	}
}

func (p *finishedPhase) handle(act Action) (protocol.GameState, any, error) {
	if !p.waitingConfirm[act.PlayerID] {
		return protocol.StateFinished, nil, apperrors.ErrForbidden
	}
	p.waitingConfirm[act.PlayerID] = false

	for _, waiting := range p.waitingConfirm {
		if waiting {
			return protocol.StateFinished, nil, nil
		}
	}
	return protocol.StateSpeaking, nil, nil
}

// onExit 开下一局：洗回整副牌、重新发牌，再轮转（或重置）echku
func (p *finishedPhase) onExit() {
	g := p.game
	g.deck.Restore()
	for _, player := range g.roster.AllPlayersTeamOrdered() {
		player.DrawNewHand(g.deck)
	}
	g.prepareNextTurn()
}
