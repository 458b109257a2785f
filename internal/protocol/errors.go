package protocol

// 错误码
const (
	ErrCodeUnknown    = 1000
	ErrCodeInvalidMsg = 1001
	ErrCodeRateLimit  = 1002 // 速率限制

	ErrCodeRoomNotFound  = 2001
	ErrCodeRoomFull      = 2002
	ErrCodeNotInRoom     = 2003
	ErrCodeAlreadyInRoom = 2004

	ErrCodeForbidden   = 3001 // 动作在当前阶段不合法或参数违规
	ErrCodeWrongPlayer = 3002 // 动作合法但不是该玩家的回合
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:       "unknown error",
	ErrCodeInvalidMsg:    "invalid message format",
	ErrCodeRateLimit:     "too many requests",
	ErrCodeRoomNotFound:  "table not found",
	ErrCodeRoomFull:      "table is full",
	ErrCodeNotInRoom:     "you are not at a table",
	ErrCodeAlreadyInRoom: "you are already at a table",
	ErrCodeForbidden:     "action not allowed",
	ErrCodeWrongPlayer:   "not your turn",
}
