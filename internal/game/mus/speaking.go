package mus

import (
	"github.com/mickaelseznec/mus/internal/game/roster"
	"github.com/mickaelseznec/mus/internal/protocol"
)

// speakingPhase 宣言阶段：两队轮流表态要不要换牌。
// 行动权从 echku 头手所在的队开始，每次 mus 后翻转到对方队；
// 双方都喊 mus 进入换牌，任何一方 mintza 直接开始下注。
type speakingPhase struct {
	phaseCore
	teamSaidMus [roster.TeamCount]bool
}

func newSpeakingPhase(g *Game) *speakingPhase {
	return &speakingPhase{phaseCore: phaseCore{game: g}}
}

func (p *speakingPhase) availableActions() []protocol.ActionType {
	return []protocol.ActionType{protocol.ActionMus, protocol.ActionMintza}
}

func (p *speakingPhase) isPlayerAuthorized(playerID string) bool {
	player := p.game.roster.PlayerByID(playerID)
	return player != nil && player.CanSpeak
}

func (p *speakingPhase) onEntry() {
	p.resetHistory()
	for i := range p.teamSaidMus {
		p.teamSaidMus[i] = false
	}

	echku := p.game.roster.AllPlayersEchkuOrdered()
	p.game.roster.SetAuthorizedTeam(echku[0].TeamID())
}

func (p *speakingPhase) handle(act Action) (protocol.GameState, any, error) {
	if act.Type == protocol.ActionMintza {
		return protocol.StateHaundia, nil, nil
	}

	player := p.game.roster.PlayerByID(act.PlayerID)
	p.teamSaidMus[player.TeamID()] = true

	if p.teamSaidMus[0] && p.teamSaidMus[1] {
		return protocol.StateTrading, nil, nil
	}

	p.game.roster.AuthorizeOppositeTeam(player.TeamID())
	return protocol.StateSpeaking, nil, nil
}

func (p *speakingPhase) publicRepresentation() any {
	return protocol.SpeakingStatus{TeamSaidMus: append([]bool(nil), p.teamSaidMus[:]...)}
}
