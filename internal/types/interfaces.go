package types

import (
	"github.com/mickaelseznec/mus/internal/protocol"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	GetOnlineCount() int
	GetClientByID(id string) ClientInterface
	RegisterClient(id string, client ClientInterface)
	UnregisterClient(id string)
}

// ClientInterface 定义客户端接口
type ClientInterface interface {
	GetID() string
	GetName() string
	GetRoom() string
	SetRoom(code string)
	SetIdentity(id, name string) // 重连时恢复旧身份
	SendMessage(msg *protocol.Message)
	Close()
}
