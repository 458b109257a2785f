package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/mickaelseznec/mus/internal/config"
	"github.com/mickaelseznec/mus/internal/protocol"
	"github.com/mickaelseznec/mus/internal/server/session"
	"github.com/mickaelseznec/mus/internal/server/storage"
	"github.com/mickaelseznec/mus/internal/types"
)

// Server WebSocket 对局服务器
type Server struct {
	config *config.Config

	redis       *redis.Client
	store       *storage.RedisStore
	leaderboard *storage.LeaderboardManager

	sessions *session.Manager
	rooms    *RoomManager
	handler  *Handler

	clients   map[string]types.ClientInterface
	clientsMu sync.RWMutex

	rateLimiter   *RateLimiter
	msgLimiter    *MessageRateLimiter
	originChecker *OriginChecker
	semaphore     chan struct{} // 并发连接上限

	upgrader   websocket.Upgrader
	httpServer *http.Server
}

var _ types.ServerInterface = (*Server)(nil)

// NewServer 创建服务器并连通 Redis
func NewServer(cfg *config.Config) (*Server, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	s := &Server{
		config:        cfg,
		redis:         rdb,
		store:         storage.NewRedisStore(rdb),
		leaderboard:   storage.NewLeaderboardManager(rdb),
		sessions:      session.NewManager(),
		clients:       make(map[string]types.ClientInterface),
		rateLimiter:   NewRateLimiter(cfg.Security.ConnectionsPerMinute, 5*time.Minute),
		msgLimiter:    NewMessageRateLimiter(cfg.Security.MessagesPerSecond),
		originChecker: NewOriginChecker(cfg.Security.AllowedOrigins),
		semaphore:     make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.rooms = NewRoomManager(s.store, s.leaderboard, s.sessions, cfg.Game.MaxScore)
	s.handler = NewHandler(s)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}

	return s, nil
}

// Start 启动 HTTP 服务并阻塞
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	go s.monitorStats()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("🚀 Mus 服务器启动: ws://%s/ws", addr)
	return s.httpServer.ListenAndServe()
}

// handleWebSocket 处理新连接：安检、升级、建会话、起读写协程
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	// 并发连接上限
	select {
	case s.semaphore <- struct{}{}:
	default:
		http.Error(w, "server is full", http.StatusServiceUnavailable)
		return
	}

	// 连接速率限制
	if !s.rateLimiter.Allow(ip) {
		<-s.semaphore
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(uuid.NewString(), GenerateNickname(), ip, s, conn)
	s.RegisterClient(client.ID, client)

	sess := s.sessions.Create(client.ID, client.Nickname)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		ClientID:     client.ID,
		SessionToken: sess.ReconnectToken,
	}))

	go client.WritePump()
	go func() {
		client.ReadPump()
		<-s.semaphore
	}()

	log.Printf("🔗 客户端 %s (%s) 已连接，IP: %s", client.Nickname, client.ID, ip)
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","online":%d}`, s.GetOnlineCount())
}

// monitorStats 定期输出运行指标
func (s *Server) monitorStats() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		log.Printf("📊 在线: %d, 进行中的对局: %d",
			s.GetOnlineCount(), s.rooms.GetActiveGamesCount())
	}
}

// RegisterClient 注册客户端
func (s *Server) RegisterClient(id string, client types.ClientInterface) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[id] = client
}

// UnregisterClient 注销客户端
func (s *Server) UnregisterClient(id string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, id)
}

// GetClientByID 按 ID 查找客户端
func (s *Server) GetClientByID(id string) types.ClientInterface {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return s.clients[id]
}

// GetOnlineCount 在线客户端数量
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcast 向所有在线客户端广播
func (s *Server) Broadcast(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, client := range s.clients {
		client.SendMessage(msg)
	}
}

// GracefulShutdown 优雅停机：关客户端、停 HTTP、断 Redis
func (s *Server) GracefulShutdown(ctx context.Context) error {
	log.Println("⏳ 服务器正在停机...")

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clients = make(map[string]types.ClientInterface)
	s.clientsMu.Unlock()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}

	if err := s.redis.Close(); err != nil {
		return err
	}

	log.Println("✅ 服务器已停机")
	return nil
}
