package mus

import "github.com/mickaelseznec/mus/internal/protocol"

// gamePhase 对局阶段。每个阶段对象在对局创建时构造一次，
// 之后重复进入时通过 onEntry 重置，不重新创建。
type gamePhase interface {
	// availableActions 当前阶段的合法动作集
	availableActions() []protocol.ActionType
	// isPlayerAuthorized 该玩家此刻是否有行动权
	isPlayerAuthorized(playerID string) bool
	// handle 执行动作并返回下一个状态（可能是当前状态）。
	// 返回错误时对局状态不得有任何改动。
	handle(act Action) (protocol.GameState, any, error)
	// onEntry 进入阶段时重置阶段局部状态
	onEntry()
	// onExit 离开阶段时的收尾动作
	onExit()
	// publicRepresentation 阶段的公开表示，放进状态快照；nil 表示无
	publicRepresentation() any

	record(act Action)
}

// phaseCore 各阶段共享的底座：对局引用 + 动作历史
type phaseCore struct {
	game    *Game
	history []Action
}

func (c *phaseCore) record(act Action) {
	c.history = append(c.history, act)
}

func (c *phaseCore) resetHistory() {
	c.history = c.history[:0]
}

func (c *phaseCore) onExit() {}

func (c *phaseCore) publicRepresentation() any { return nil }
