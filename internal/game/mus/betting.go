package mus

import (
	"github.com/mickaelseznec/mus/internal/apperrors"
	"github.com/mickaelseznec/mus/internal/game/card"
	"github.com/mickaelseznec/mus/internal/game/rank"
	"github.com/mickaelseznec/mus/internal/game/roster"
	"github.com/mickaelseznec/mus/internal/protocol"
)

// betConfig 一个下注阶段的配置。四个下注阶段共用同一套协议，
// 只在比牌方式、参赛资格和附加分上有差别。
type betConfig struct {
	state protocol.GameState
	next  protocol.GameState
	kind  rank.Kind

	// hasBonus 结算时是否给获胜队按牌型发附加分（Pariak / Jokua）
	hasBonus bool
	// qualify 参赛资格判定；nil 表示所有人都参赛
	qualify func([]card.Card) bool
	// allowFalseGame 无人够格时是否照常下注（Jokua 的"假局"）
	allowFalseGame bool
}

// betPhase 下注阶段。注（bid）从 0 起步，每次加注把上一个待响应的
// 加注量（offer）滚进注里；弃权方把当前的注立刻让给对方，
// 接受方把注推迟到结算阶段按比牌结果发放。
type betPhase struct {
	phaseCore
	cfg betConfig

	attendees      map[string]bool
	hasPassed      map[string]bool
	waitingConfirm map[string]bool
	qualifies      map[string]bool // qualify == nil 时为 nil
	current        *roster.Player

	winner       *int
	bid          int
	offer        int
	deferred     bool
	engaged      bool
	underHordago bool
	skipped      bool
	falseGame    bool
	bonus        int
}

func newBetPhase(g *Game, cfg betConfig) *betPhase {
	return &betPhase{phaseCore: phaseCore{game: g}, cfg: cfg}
}

func (p *betPhase) availableActions() []protocol.ActionType {
	if p.skipped {
		return []protocol.ActionType{protocol.ActionConfirm}
	}
	if p.underHordago {
		return []protocol.ActionType{protocol.ActionKanta, protocol.ActionTira}
	}

	actions := []protocol.ActionType{protocol.ActionGehiago, protocol.ActionHordago}
	if !p.engaged {
		actions = append(actions, protocol.ActionPaso, protocol.ActionImido)
	} else {
		actions = append(actions, protocol.ActionTira, protocol.ActionIdoki)
	}
	return actions
}

func (p *betPhase) isPlayerAuthorized(playerID string) bool {
	if p.skipped {
		return true
	}
	player := p.game.roster.PlayerByID(playerID)
	return player != nil && p.attendees[playerID] && player.CanSpeak
}

func (p *betPhase) onEntry() {
	p.resetHistory()
	p.attendees = make(map[string]bool)
	p.hasPassed = make(map[string]bool)
	p.waitingConfirm = make(map[string]bool)
	p.qualifies = nil
	p.current = nil
	p.winner = nil
	p.bid = 0
	p.offer = 0
	p.deferred = true
	p.engaged = false
	p.underHordago = false
	p.skipped = false
	p.falseGame = false
	p.bonus = 0

	players := p.game.roster.AllPlayersEchkuOrdered()
	for _, player := range players {
		p.attendees[player.ID] = true
	}

	if p.cfg.qualify != nil {
		p.qualifies = make(map[string]bool)
		anyQualifies := false
		for _, player := range players {
			q := p.cfg.qualify(player.Cards())
			p.qualifies[player.ID] = q
			anyQualifies = anyQualifies || q
		}

		switch {
		case !anyQualifies:
			if !p.cfg.allowFalseGame {
				// 没人有对子：本阶段没有赢家，全员确认后跳过
				p.skip(nil)
				return
			}
			// 假局：没人成牌时照常下注，比原始点数
			p.falseGame = true

		case !p.teamQualifies(0) || !p.teamQualifies(1):
			// 只有一队够格：胜负已定，注为 0，只剩附加分
			p.computeWinner()
			p.deferred = false
			p.skip(p.winner)
			return

		default:
			for _, player := range players {
				p.attendees[player.ID] = p.qualifies[player.ID]
			}
		}
	}

	p.authorizeFirst()
}

func (p *betPhase) handle(act Action) (protocol.GameState, any, error) {
	player := p.game.roster.PlayerByID(act.PlayerID)

	switch act.Type {
	case protocol.ActionConfirm:
		if !p.waitingConfirm[act.PlayerID] {
			return p.cfg.state, nil, apperrors.ErrForbidden
		}
		p.waitingConfirm[act.PlayerID] = false
		if p.allConfirmed() {
			return p.cfg.next, nil, nil
		}
		return p.cfg.state, nil, nil

	case protocol.ActionPaso:
		p.hasPassed[act.PlayerID] = true
		p.authorizeNext()
		if p.everybodyPassed() {
			// 全员过牌：无人下注的阶段仍值 1 分，结算时按比牌发放
			p.bid = 1
			return p.cfg.next, nil, nil
		}
		return p.cfg.state, nil, nil

	case protocol.ActionImido:
		p.offer = 1
		p.engaged = true
		p.game.roster.AuthorizeOppositeTeam(player.TeamID())
		return p.cfg.state, nil, nil

	case protocol.ActionGehiago:
		return p.raise(player, act.Offer, false)

	case protocol.ActionHordago:
		// 全押等价于把剩余分差一次加满，对方只能 kanta 或 tira
		return p.raise(player, p.scoreGap(), true)

	case protocol.ActionTira:
		p.deferred = false
		winnerTeam := roster.OppositeTeamID(player.TeamID())
		p.winner = &winnerTeam
		// 弃权至少让出底分 1 分
		if won := p.game.roster.AddPoints(max(p.bid, 1), winnerTeam); won {
			p.game.setFinished()
			return protocol.StateFinished, nil, nil
		}
		return p.cfg.next, nil, nil

	case protocol.ActionIdoki:
		p.bid += p.offer
		p.offer = 0
		return p.cfg.next, nil, nil

	default: // kanta：接受全押，直接去结算
		p.bid += p.offer
		p.offer = 0
		return protocol.StateFinished, nil, nil
	}
}

// raise 加注公共路径。校验全部通过后才改状态，保证失败时无副作用。
// 全押不受最低加注额限制：分差缩到 1 时照样可以喊。
func (p *betPhase) raise(player *roster.Player, offer int, hordago bool) (protocol.GameState, any, error) {
	if !hordago && (offer <= 0 || (offer == 1 && !p.engaged)) {
		return p.cfg.state, nil, apperrors.ErrForbidden
	}

	p.bid += p.offer
	p.offer = offer
	p.engaged = true
	p.underHordago = hordago
	p.game.roster.AuthorizeOppositeTeam(player.TeamID())
	return p.cfg.state, nil, nil
}

func (p *betPhase) onExit() {
	if p.deferred {
		p.computeWinner()
	}
	p.computeBonus()
}

// skip 阶段跳过：不下注，全员确认后进入下一阶段
func (p *betPhase) skip(winner *int) {
	p.skipped = true
	p.bid = 0
	p.offer = 0
	p.deferred = false
	p.winner = winner
	p.engaged = winner != nil
	for _, player := range p.game.roster.AllPlayersTeamOrdered() {
		p.waitingConfirm[player.ID] = true
	}
}

// computeWinner 在整桌范围内按 echku 顺序做稳定的最大值扫描：
// 平局时 echku 顺序靠前的一方获胜
func (p *betPhase) computeWinner() {
	players := p.game.roster.AllPlayersEchkuOrdered()
	best := players[0]
	for _, player := range players[1:] {
		if rank.Less(p.cfg.kind, best.Cards(), player.Cards()) {
			best = player
		}
	}
	winnerTeam := best.TeamID()
	p.winner = &winnerTeam
}

// computeBonus 附加分只在有人起注时计算；
// 假局固定 1 分，其余按获胜队全体成员的牌型累加
func (p *betPhase) computeBonus() {
	if !p.engaged || p.winner == nil {
		return
	}
	if p.falseGame {
		p.bonus = 1
		return
	}
	if !p.cfg.hasBonus {
		return
	}
	for _, player := range p.game.roster.TeamPlayers(*p.winner) {
		p.bonus += rank.Bonus(p.cfg.kind, player.Cards())
	}
}

func (p *betPhase) teamQualifies(teamID int) bool {
	for _, player := range p.game.roster.TeamPlayers(teamID) {
		if p.qualifies[player.ID] {
			return true
		}
	}
	return false
}

func (p *betPhase) attendingPlayers() []*roster.Player {
	players := p.game.roster.AllPlayersEchkuOrdered()
	attending := make([]*roster.Player, 0, len(players))
	for _, player := range players {
		if p.attendees[player.ID] {
			attending = append(attending, player)
		}
	}
	return attending
}

func (p *betPhase) authorizeFirst() {
	attending := p.attendingPlayers()
	if len(attending) == 0 {
		return
	}
	p.current = attending[0]
	p.game.roster.SetAuthorizedPlayer(p.current)
}

func (p *betPhase) authorizeNext() {
	attending := p.attendingPlayers()
	for i, player := range attending {
		if player == p.current {
			p.current = attending[(i+1)%len(attending)]
			break
		}
	}
	p.game.roster.SetAuthorizedPlayer(p.current)
}

func (p *betPhase) everybodyPassed() bool {
	for playerID, attends := range p.attendees {
		if attends && !p.hasPassed[playerID] {
			return false
		}
	}
	return true
}

func (p *betPhase) allConfirmed() bool {
	for _, waiting := range p.waitingConfirm {
		if waiting {
			return false
		}
	}
	return true
}

// scoreGap 距离目标分的最大剩余分差（全押的注额）
func (p *betPhase) scoreGap() int {
	gap := 0
	for _, team := range p.game.roster.Teams {
		if remaining := p.game.maxScore - team.Score; remaining > gap {
			gap = remaining
		}
	}
	return gap
}

func (p *betPhase) publicRepresentation() any {
	status := protocol.BetStatus{
		Bid:          p.bid,
		Offer:        p.offer,
		BidDeferred:  p.deferred,
		Engaged:      p.engaged,
		UnderHordago: p.underHordago,
		IsSkipped:    p.skipped,
		Bonus:        p.bonus,
	}
	if p.winner != nil {
		w := *p.winner
		status.WinnerTeam = &w
	}
	if p.qualifies != nil {
		status.PlayerQualifies = make(map[int]bool)
		for _, player := range p.game.roster.AllPlayersTeamOrdered() {
			status.PlayerQualifies[player.PublicID] = p.qualifies[player.ID]
		}
	}
	return status
}
