package mus

import "github.com/mickaelseznec/mus/internal/protocol"

// Action 引擎动作。Type 必填，PlayerID 标识发起者（add_player 新玩家时为空）。
// 其余字段按动作选填：change 用 Indices，toggle 用 Index，
// gehiago 用 Offer，add_player 用 TeamID。
type Action struct {
	Type     protocol.ActionType
	PlayerID string
	TeamID   int
	Indices  []int
	Index    int
	Offer    int
}

// Response 动作应答。Status 为 OK 时 Result 携带动作结果：
// add_player 返回 *roster.Player，get_cards 返回手牌。
type Response struct {
	Status protocol.ResponseStatus
	Result any
}

func okResponse(result any) Response {
	return Response{Status: protocol.StatusOK, Result: result}
}

func forbiddenResponse() Response {
	return Response{Status: protocol.StatusForbidden}
}

func wrongPlayerResponse() Response {
	return Response{Status: protocol.StatusWrongPlayer}
}
