package mus

import "github.com/mickaelseznec/mus/internal/protocol"

// Status 生成对局的公开状态快照。
// 只包含公开信息：手牌绝不出现在这里，只能通过 get_cards 私下查询。
func (g *Game) Status() protocol.GameStatus {
	phase := g.phases[g.current]

	status := protocol.GameStatus{
		CurrentState: g.current,
		TurnNumber:   g.turnNumber,
		GameOver:     g.finished,
		WinnerTeam:   g.Winner(),
		States:       make(map[protocol.GameState]any),
	}

	for _, player := range g.roster.AllPlayersTeamOrdered() {
		status.Players = append(status.Players, protocol.PlayerStatus{
			PlayerID: player.PublicID,
			TeamID:   player.TeamID(),
			CanSpeak: phase.isPlayerAuthorized(player.ID),
		})
	}

	for _, team := range g.roster.Teams {
		teamStatus := protocol.TeamStatus{
			TeamID: team.ID,
			Score:  team.Score,
			Games:  team.Games,
		}
		for _, player := range team.Players {
			teamStatus.Players = append(teamStatus.Players, player.PublicID)
		}
		status.Teams = append(status.Teams, teamStatus)
	}

	for _, player := range g.roster.AllPlayersEchkuOrdered() {
		status.EchkuOrder = append(status.EchkuOrder, player.PublicID)
	}

	// 只投影本局进入过的阶段
	for state := range g.visited {
		if rep := g.phases[state].publicRepresentation(); rep != nil {
			status.States[state] = rep
		}
	}

	return status
}
