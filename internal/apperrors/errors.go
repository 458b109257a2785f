package apperrors

import (
	"github.com/mickaelseznec/mus/internal/protocol"
)

// GameError 游戏错误（牌桌和引擎共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound  = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "牌桌不存在"}
	ErrRoomFull      = &GameError{Code: protocol.ErrCodeRoomFull, Message: "牌桌已满"}
	ErrNotInRoom     = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "您不在牌桌上"}
	ErrAlreadyInRoom = &GameError{Code: protocol.ErrCodeAlreadyInRoom, Message: "您已经在牌桌上"}
	ErrForbidden     = &GameError{Code: protocol.ErrCodeForbidden, Message: "当前阶段不允许这个动作"}
	ErrWrongPlayer   = &GameError{Code: protocol.ErrCodeWrongPlayer, Message: "还没轮到您"}
)
