package server

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mickaelseznec/mus/internal/logger"
	"github.com/mickaelseznec/mus/internal/protocol"
	"github.com/mickaelseznec/mus/internal/protocol/codec"
	"github.com/mickaelseznec/mus/internal/types"
)

const (
	// 写超时
	writeWait = 10 * time.Second
	// 读 pong 超时
	pongWait = 60 * time.Second
	// ping 间隔，必须小于 pongWait
	pingPeriod = (pongWait * 9) / 10
	// 最大消息长度
	maxMessageSize = 4096
	// 发送缓冲区大小
	sendBufferSize = 256
)

// Client 一个 WebSocket 连接
type Client struct {
	ID       string
	Nickname string
	IP       string

	roomCode string
	server   *Server
	conn     *websocket.Conn
	send     chan []byte

	closed bool
	mu     sync.Mutex
}

var _ types.ClientInterface = (*Client)(nil)

// NewClient 创建客户端
func NewClient(id, nickname, ip string, server *Server, conn *websocket.Conn) *Client {
	return &Client{
		ID:       id,
		Nickname: nickname,
		IP:       ip,
		server:   server,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
	}
}

// ReadPump 读取客户端消息并分发给处理器
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.handleDisconnect()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("客户端 %s 连接异常: %v", c.ID, err)
			}
			return
		}

		// 消息速率限制
		if allowed, _ := c.server.msgLimiter.AllowMessage(c.ID); !allowed {
			c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeRateLimit))
			if c.server.msgLimiter.GetWarningCount(c.ID) > 5 {
				log.Printf("⚠️ 客户端 %s 消息刷屏，断开连接", c.ID)
				return
			}
			continue
		}

		msg := codec.GetMessage()
		if err := msg.DecodeInto(data); err != nil {
			codec.PutMessage(msg)
			c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		c.server.handler.Handle(c, msg)
		codec.PutMessage(msg)
	}
}

// WritePump 把发送队列写到连接，并按时发 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 发送队列已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 序列化并投递一条消息。
// 发送缓冲满说明客户端已经跟不上，直接断开。
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := msg.Encode()
	if err != nil {
		log.Printf("序列化消息失败: %v", err)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	select {
	case c.send <- data:
	default:
		log.Printf("客户端 %s 发送缓冲已满，断开连接", c.ID)
		c.Close()
	}
}

// handleDisconnect 连接断开后的清理：标记离线、通知牌桌、注销
func (c *Client) handleDisconnect() {
	c.server.sessions.SetOffline(c.ID)
	c.server.rooms.NotifyPlayerOffline(c)
	c.server.msgLimiter.RemoveClient(c.ID)
	c.server.UnregisterClient(c.ID)
	c.Close()

	log.Printf("📴 客户端 %s (%s) 断开连接", c.Nickname, c.ID)
}

// Close 关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

// GetID 客户端 ID
func (c *Client) GetID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ID
}

// GetName 客户端昵称
func (c *Client) GetName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Nickname
}

// GetRoom 所在牌桌号
func (c *Client) GetRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode
}

// SetRoom 设置所在牌桌号
func (c *Client) SetRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// SetIdentity 重连时恢复旧身份
func (c *Client) SetIdentity(id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ID = id
	c.Nickname = name
}
