package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/liuran001/WatchParty-Go/party"
	"github.com/liuran001/WatchParty-Go/party/feedback"
	"github.com/liuran001/WatchParty-Go/party/room"
)

// StatusSource exposes the latest polling results.
type StatusSource interface {
	Health() party.HealthReport
	Games() []party.GameView
}

// Refresher forces an immediate poll.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// FeedbackSubmitter accepts feedback from a client.
type FeedbackSubmitter interface {
	Submit(ctx context.Context, clientKey string, req feedback.Request) (*party.FeedbackEntry, error)
}

// Config wires the handlers to their collaborators.
type Config struct {
	Codec    *room.Codec
	Address  party.ServerAddress
	Status   StatusSource
	Refresh  Refresher
	Feedback FeedbackSubmitter
	Logger   party.Logger
	// RefreshTimeout bounds the poll triggered after the address changes.
	RefreshTimeout time.Duration
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// Server is the companion HTTP surface.
type Server struct {
	router         chi.Router
	codec          *room.Codec
	addr           party.ServerAddress
	status         StatusSource
	refresher      Refresher
	feedback       FeedbackSubmitter
	logger         party.Logger
	refreshTimeout time.Duration

	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
}

// New creates the server and registers its routes.
func New(cfg Config) *Server {
	if cfg.Codec == nil {
		cfg.Codec = room.NewCodec(nil, room.DefaultChatBase)
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	s := &Server{
		router:         r,
		codec:          cfg.Codec,
		addr:           cfg.Address,
		status:         cfg.Status,
		refresher:      cfg.Refresh,
		feedback:       cfg.Feedback,
		logger:         cfg.Logger,
		refreshTimeout: cfg.RefreshTimeout,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/", s.handlePage)
	s.router.Post("/server", s.handleServerForm)
	s.router.Post("/feedback", s.handleFeedbackForm)
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/parse", s.handleParse)
		r.Get("/describe", s.handleDescribe)
		r.Get("/status", s.handleStatus)
		r.Get("/server", s.handleGetServer)
		r.Put("/server", s.handleSetServer)
		r.Delete("/server", s.handleResetServer)
		r.Post("/feedback", s.handleFeedback)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ln.Close()
	}
	s.httpServer = srv
	s.mu.Unlock()

	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the listener started by ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.closed = true
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// refresh polls after an address change; failures only affect the status display.
func (s *Server) refresh(ctx context.Context) {
	if s.refresher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()
	if err := s.refresher.Refresh(ctx); err != nil && s.logger != nil {
		s.logger.Warn("refresh after server change", "error", err)
	}
}
