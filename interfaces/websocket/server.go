package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ServerConfig holds WebSocket upgrade configuration.
type ServerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultServerConfig returns default WebSocket upgrade configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// OriginChecker builds a CheckOrigin function from an allow-list. A "*"
// entry allows every origin.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	allowAll := false
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
		}
		set[origin] = true
	}
	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		return set[r.Header.Get("Origin")]
	}
}

// Server upgrades HTTP requests to WebSocket connections and hands them to
// the engine.
type Server struct {
	engine   *Engine
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer creates a new WebSocket server.
func NewServer(engine *Engine, config *ServerConfig, logger *zap.Logger) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	return &Server{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: logger,
	}
}

// HandleWebSocket handles WebSocket upgrade requests.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		return
	}

	client := NewClient(s.engine, conn, s.logger)
	s.engine.HandleConnect(client)
	client.Start()

	s.logger.Info("websocket connection established",
		zap.String("connectionID", client.ID()),
		zap.String("remoteAddr", r.RemoteAddr),
	)
}
