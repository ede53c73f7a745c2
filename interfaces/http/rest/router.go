// Package rest wires the HTTP surface: session CRUD, health, metrics, and
// the WebSocket upgrade endpoint.
package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"mindmap-backend/interfaces/http/rest/handlers"
	"mindmap-backend/interfaces/websocket"
	"mindmap-backend/internal/service/graph"
	"mindmap-backend/pkg/observability"
)

// Router assembles the HTTP handler tree.
type Router struct {
	service        graph.Service
	wsServer       *websocket.Server
	metrics        *observability.Metrics
	allowedOrigins []string
	logger         *zap.Logger
}

// NewRouter creates a new router.
func NewRouter(
	service graph.Service,
	wsServer *websocket.Server,
	metrics *observability.Metrics,
	allowedOrigins []string,
	logger *zap.Logger,
) *Router {
	return &Router{
		service:        service,
		wsServer:       wsServer,
		metrics:        metrics,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// Setup configures and returns the HTTP handler.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(rt.loggingMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	sessionHandler := handlers.NewSessionHandler(rt.service, rt.logger)
	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.CreateSession)
			r.Get("/", sessionHandler.ListSessions)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", sessionHandler.GetSession)
				r.Put("/", sessionHandler.UpdateSession)
				r.Delete("/", sessionHandler.DeleteSession)
			})
		})
	})

	r.Get("/ws", rt.wsServer.HandleWebSocket)

	return r
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// loggingMiddleware logs each request with method, path, status and latency.
func (rt *Router) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rt.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("requestID", chimiddleware.GetReqID(r.Context())),
		)
	})
}
