package mus

import "github.com/mickaelseznec/mus/internal/protocol"

// lobbyPhase 等待室：组队、开局。
// 这个阶段是合作性的，任何人都可以操作，没有行动权限制。
type lobbyPhase struct {
	phaseCore
}

func newLobbyPhase(g *Game) *lobbyPhase {
	return &lobbyPhase{phaseCore{game: g}}
}

func (p *lobbyPhase) availableActions() []protocol.ActionType {
	actions := []protocol.ActionType{protocol.ActionAddPlayer, protocol.ActionRemovePlayer}
	if p.game.roster.WellConfigured() {
		actions = append(actions, protocol.ActionStartGame)
	}
	return actions
}

func (p *lobbyPhase) isPlayerAuthorized(string) bool { return true }

func (p *lobbyPhase) onEntry() {
	p.resetHistory()
}

func (p *lobbyPhase) handle(act Action) (protocol.GameState, any, error) {
	switch act.Type {
	case protocol.ActionAddPlayer:
		player, err := p.game.roster.AddPlayer(act.PlayerID, act.TeamID)
		if err != nil {
			return protocol.StateWaitingRoom, nil, err
		}
		return protocol.StateWaitingRoom, player, nil

	case protocol.ActionRemovePlayer:
		p.game.roster.RemovePlayer(act.PlayerID)
		return protocol.StateWaitingRoom, nil, nil

	default: // start_game，可用性已由 availableActions 保证
		return protocol.StateSpeaking, nil, nil
	}
}

// onExit 开局：给每人发 4 张牌，按两队交错建立 echku 顺序
func (p *lobbyPhase) onExit() {
	for _, player := range p.game.roster.AllPlayersTeamOrdered() {
		player.DrawNewHand(p.game.deck)
	}
	p.game.roster.InitEchkuOrder()
}
