// Package mus 实现 Mus 的对局引擎：阶段状态机、下注协议和结算。
// 引擎本身不做任何 IO，由上层（牌桌）驱动并广播状态。
package mus

import (
	"errors"
	"math/rand/v2"
	"slices"

	"github.com/mickaelseznec/mus/internal/apperrors"
	"github.com/mickaelseznec/mus/internal/game/card"
	"github.com/mickaelseznec/mus/internal/game/rank"
	"github.com/mickaelseznec/mus/internal/game/roster"
	"github.com/mickaelseznec/mus/internal/protocol"
)

// DefaultMaxScore 默认目标分
const DefaultMaxScore = 40

// betStates 四个下注阶段的结算顺序
var betStates = []protocol.GameState{
	protocol.StateHaundia,
	protocol.StateTipia,
	protocol.StatePariak,
	protocol.StateJokua,
}

// Game 一场对局。非并发安全，调用方负责串行化。
type Game struct {
	roster   *roster.Manager
	deck     *card.Deck
	phases   map[protocol.GameState]gamePhase
	current  protocol.GameState
	visited  map[protocol.GameState]bool
	maxScore int

	turnNumber int
	finished   bool
	winner     *int
}

// New 创建对局，maxScore <= 0 时用默认目标分
func New(maxScore int) *Game {
	return NewWithRand(maxScore, nil)
}

// NewWithRand 创建对局并注入随机源（测试用固定种子保证可复现）
func NewWithRand(maxScore int, rng *rand.Rand) *Game {
	if maxScore <= 0 {
		maxScore = DefaultMaxScore
	}

	g := &Game{
		roster:     roster.NewManager(maxScore),
		deck:       card.NewDeck(rng),
		current:    protocol.StateWaitingRoom,
		visited:    make(map[protocol.GameState]bool),
		maxScore:   maxScore,
		turnNumber: 1,
	}

	g.phases = map[protocol.GameState]gamePhase{
		protocol.StateWaitingRoom: newLobbyPhase(g),
		protocol.StateSpeaking:    newSpeakingPhase(g),
		protocol.StateTrading:     newTradingPhase(g),
		protocol.StateHaundia: newBetPhase(g, betConfig{
			state: protocol.StateHaundia,
			next:  protocol.StateTipia,
			kind:  rank.Haundia,
		}),
		protocol.StateTipia: newBetPhase(g, betConfig{
			state: protocol.StateTipia,
			next:  protocol.StatePariak,
			kind:  rank.Tipia,
		}),
		protocol.StatePariak: newBetPhase(g, betConfig{
			state:    protocol.StatePariak,
			next:     protocol.StateJokua,
			kind:     rank.Pariak,
			hasBonus: true,
			qualify:  rank.HasPair,
		}),
		protocol.StateJokua: newBetPhase(g, betConfig{
			state:          protocol.StateJokua,
			next:           protocol.StateFinished,
			kind:           rank.Jokua,
			hasBonus:       true,
			qualify:        rank.HasGame,
			allowFalseGame: true,
		}),
		protocol.StateFinished: newFinishedPhase(g),
	}

	g.phases[g.current].onEntry()
	return g
}

// CurrentState 当前阶段
func (g *Game) CurrentState() protocol.GameState { return g.current }

// TurnNumber 当前局数，从 1 开始
func (g *Game) TurnNumber() int { return g.turnNumber }

// Finished 整场比赛是否已分出胜负
func (g *Game) Finished() bool { return g.finished }

// Winner 获胜队伍编号，未分出胜负时为 nil
func (g *Game) Winner() *int {
	if g.winner == nil {
		return nil
	}
	w := *g.winner
	return &w
}

// Roster 玩家管理器（牌桌层做身份映射用）
func (g *Game) Roster() *roster.Manager { return g.roster }

// Apply 执行一个动作。
// 先做合法性与行动权检查，再交给当前阶段处理；
// 状态变更时依次触发旧阶段的 onExit 和新阶段的 onEntry。
func (g *Game) Apply(act Action) Response {
	phase := g.phases[g.current]

	if act.PlayerID == "" && act.Type != protocol.ActionAddPlayer {
		return forbiddenResponse()
	}

	// get_cards 是旁路查询：除等待室外任何阶段可用，不影响状态机
	if act.Type == protocol.ActionGetCards {
		if g.current == protocol.StateWaitingRoom {
			return forbiddenResponse()
		}
		player := g.roster.PlayerByID(act.PlayerID)
		if player == nil {
			return forbiddenResponse()
		}
		return okResponse(player.Cards())
	}

	if g.current != protocol.StateWaitingRoom && g.roster.PlayerByID(act.PlayerID) == nil {
		return forbiddenResponse()
	}

	if !slices.Contains(phase.availableActions(), act.Type) {
		return forbiddenResponse()
	}
	if !phase.isPlayerAuthorized(act.PlayerID) {
		return wrongPlayerResponse()
	}

	next, result, err := phase.handle(act)
	if err != nil {
		if errors.Is(err, apperrors.ErrWrongPlayer) {
			return wrongPlayerResponse()
		}
		return forbiddenResponse()
	}
	phase.record(act)

	if next != g.current {
		phase.onExit()
		g.current = next
		g.visited[next] = true
		g.phases[next].onEntry()
	}

	return okResponse(result)
}

// setFinished 记录整场比赛的胜负并累加获胜队伍的局数
func (g *Game) setFinished() {
	g.finished = true
	if team := g.roster.WinnerTeam(); team != nil {
		id := team.ID
		g.winner = &id
		team.Games++
	}
}

// prepareNextTurn 为下一局（或下一场）做准备。
// 比赛已分出胜负时清零比分、echku 回到初始座次重新开场；
// 否则局数加一、echku 轮转一位。
func (g *Game) prepareNextTurn() {
	clear(g.visited)

	if g.finished {
		g.finished = false
		g.turnNumber = 1
		g.winner = nil
		g.roster.ResetScores()
		g.roster.InitEchkuOrder()
	} else {
		g.turnNumber++
		g.roster.StepEchkuOrder()
	}
}
