// Package server serves topology previews over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/dungeontopo/internal/config"
	"github.com/lawnchairsociety/dungeontopo/internal/database"
	"github.com/lawnchairsociety/dungeontopo/internal/logger"
	"github.com/lawnchairsociety/dungeontopo/internal/topology"
)

// MaxRooms bounds the room count a client may request.
const MaxRooms = 256

// Store is the run history the server can save to and read from.
// *database.Database satisfies it.
type Store interface {
	SaveTopology(r *topology.Result) (*database.TopologyRecord, error)
	GetTopology(id string) (*database.TopologyRecord, error)
	ListTopologies(limit int) ([]database.TopologySummary, error)
}

// Server is the preview server.
type Server struct {
	cfg         *config.GeneratorConfig
	defaults    topology.Options
	store       Store
	connLimiter *ConnLimiter
	seed        func() int64
	router      chi.Router
	StartTime   time.Time

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables /topologies and the save flag.
func WithStore(st Store) Option {
	return func(s *Server) { s.store = st }
}

// WithSeedSource replaces the time-based seed used when a request has none.
func WithSeedSource(fn func() int64) Option {
	return func(s *Server) { s.seed = fn }
}

// New creates a server generating from defaults.
func New(cfg *config.GeneratorConfig, defaults topology.Options, opts ...Option) *Server {
	s := &Server{
		cfg:         cfg,
		defaults:    defaults,
		connLimiter: NewConnLimiter(cfg.Server.Connections),
		seed:        func() int64 { return time.Now().UnixNano() },
		StartTime:   time.Now(),
		shutdown:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/topology", s.handleTopologyJSON)
	r.Get("/topology.dot", s.handleTopologyDOT)
	r.Get("/topology.svg", s.handleTopologySVG)
	r.Get("/ws", s.handleWebSocketUpgrade)

	r.Route("/topologies", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
	})
	return r
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is cancelled or
// Shutdown is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Preview server listening", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case <-s.shutdown:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Preview server stopped")
	return nil
}

// Shutdown stops ListenAndServe. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
	})
}

// topologyResponse is the JSON form of a generated or stored topology.
type topologyResponse struct {
	*topology.Result
	Fingerprint string `json:"fingerprint"`
	ID          string `json:"id,omitempty"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// generate runs one request against the defaults and saves it if asked.
func (s *Server) generate(ctx context.Context, req GenerateRequest) (*topologyResponse, error) {
	opts := req.apply(s.defaults)
	if req.Seed == nil {
		opts.Seed = s.seed()
	}
	if opts.Rooms > MaxRooms {
		return nil, &requestError{err: fmt.Errorf("rooms must be at most %d", MaxRooms)}
	}

	result, err := topology.NewGenerator(opts).GenerateContext(ctx)
	if err != nil {
		return nil, err
	}

	resp := &topologyResponse{Result: result, Fingerprint: result.Fingerprint()}
	if req.Save && s.store != nil {
		rec, err := s.store.SaveTopology(result)
		switch {
		case errors.Is(err, database.ErrDuplicateTopology):
			logger.Debug("Topology already stored", "fingerprint", resp.Fingerprint)
		case err != nil:
			return nil, fmt.Errorf("save topology: %w", err)
		default:
			resp.ID = rec.ID
		}
	}
	return resp, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"uptime":      time.Since(s.StartTime).Round(time.Second).String(),
		"connections": s.connLimiter.Stats(),
	})
}

func (s *Server) generateFromQuery(w http.ResponseWriter, r *http.Request) (*topologyResponse, bool) {
	req, err := parseQuery(r.URL.Query())
	if err == nil {
		var resp *topologyResponse
		if resp, err = s.generate(r.Context(), req); err == nil {
			return resp, true
		}
	}
	writeError(w, err)
	return nil, false
}

func (s *Server) handleTopologyJSON(w http.ResponseWriter, r *http.Request) {
	if resp, ok := s.generateFromQuery(w, r); ok {
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleTopologyDOT(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.generateFromQuery(w, r)
	if !ok {
		return
	}
	dot := resp.DOT()
	if detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed")); detailed {
		dot = resp.DetailedDOT()
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write([]byte(dot))
}

func (s *Server) handleTopologySVG(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.generateFromQuery(w, r)
	if !ok {
		return
	}
	svg, err := topology.RenderSVG(r.Context(), resp.DetailedDOT())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "run history is disabled", http.StatusNotFound)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := s.store.ListTopologies(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []database.TopologySummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "run history is disabled", http.StatusNotFound)
		return
	}
	rec, err := s.store.GetTopology(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topologyResponse{Result: rec.Result, Fingerprint: rec.Fingerprint, ID: rec.ID})
}

// handleWebSocketUpgrade upgrades an HTTP connection to WebSocket.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	// Get the real client IP (supports X-Forwarded-For from reverse proxies)
	clientIP := getRealIP(r)

	// Check connection limits before upgrading
	if !s.connLimiter.TryAcquire(clientIP) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.Server.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(clientIP)
		return
	}

	go s.handleWebSocketConnection(wsConn, clientIP)
}

// handleWebSocketConnection answers generation requests until the client
// disconnects or the server shuts down.
func (s *Server) handleWebSocketConnection(wsConn *websocket.Conn, clientIP string) {
	client := NewWebSocketClient(wsConn, s.cfg.Server.WebSocket.MaxMessageSize)
	defer func() {
		s.connLimiter.Release(clientIP)
		client.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.shutdown:
			client.Close()
		case <-ctx.Done():
		}
	}()

	log := logger.With("client_ip", clientIP)
	log.Debug("WebSocket client connected")

	for {
		req, err := client.ReadRequest()
		var reqErr *requestError
		if err != nil && !errors.As(err, &reqErr) {
			log.Debug("WebSocket client disconnected", "error", err)
			return
		}

		var reply any
		if err == nil {
			var resp *topologyResponse
			if resp, err = s.generate(ctx, req); err == nil {
				reply = resp
			}
		}
		if err != nil {
			_, body := classify(err)
			reply = body
		}

		if err := client.WriteJSON(reply); err != nil {
			log.Debug("WebSocket write failed", "error", err)
			return
		}
	}
}

// classify maps an error to an HTTP status and JSON body.
func classify(err error) (int, errorResponse) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "request"}
	case topology.IsExhausted(err):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Kind: "exhausted"}
	case topology.IsFatal(err):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "fatal"}
	case errors.Is(err, database.ErrTopologyNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Kind: "not_found"}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Kind: "canceled"}
	}
	return http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "internal"}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to write response", "error", err)
	}
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
