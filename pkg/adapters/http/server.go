package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/encoder"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// maxRequestBody caps the size of an accepted expression.
const maxRequestBody = 8 << 20

// tokenNamespace derives stable map tokens from expression fingerprints.
var tokenNamespace = uuid.MustParse("6b0e3c39-4a53-4f51-9a0f-2f1c5bd2d0a7")

// ServerConfig configures the stub evaluation server.
type ServerConfig struct {
	Addr    string
	Version string
	Logger  *slog.Logger
	// Gatherer, when set, is exposed on /metrics.
	Gatherer prometheus.Gatherer
}

// MapEntry is what the stub remembers about an issued map.
type MapEntry struct {
	ID         string           `json:"mapid"`
	Token      string           `json:"token"`
	Expression json.RawMessage  `json:"expression"`
	Params     map[string]any   `json:"params,omitempty"`
	Summary    *encoder.Summary `json:"summary"`
}

// Server is a stub of the evaluation service. It checks that expressions are well
// formed and summarizes them; it does not evaluate anything.
type Server struct {
	config ServerConfig
	logger *slog.Logger

	mu   sync.RWMutex
	maps map[string]*MapEntry
}

// NewServer creates a stub server.
func NewServer(config ServerConfig) *Server {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		config: config,
		logger: logger,
		maps:   make(map[string]*MapEntry),
	}
}

// Handler returns the HTTP routes of the stub.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Post("/v1/{op}", s.postOp)
	r.Get("/v1/maps/{id}", s.getMap)
	if s.config.Gatherer != nil {
		r.Handle("/metrics", observability.Handler(s.config.Gatherer))
	}
	return enableCORS(r)
}

// Serve listens on config.Addr and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on an existing listener and blocks until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting evaluation stub", "addr", ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down evaluation stub...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	count := len(s.maps)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"version": s.config.Version,
		"maps":    count,
	})
}

func (s *Server) postOp(w http.ResponseWriter, r *http.Request) {
	op := ports.Op(chi.URLParam(r, "op"))
	if !op.Valid() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s: %q", ports.ErrUnknownOp, op))
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	var body wireRequest
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Expression) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("invalid request body", "op", op, "error", err)
		return
	}

	summary, err := encoder.Summarize(body.Expression)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch op {
	case ports.OpValue:
		result, err := json.Marshal(summary)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, ports.Response{Result: result})
	case ports.OpMapID:
		entry := s.issue(body, summary)
		s.logger.Info("map issued", "mapid", entry.ID, "functions", len(summary.Functions))
		writeJSON(w, http.StatusOK, ports.Response{ID: entry.ID, Token: entry.Token})
	}
}

// issue records a map. Identical expressions with identical params get the same id.
func (s *Server) issue(body wireRequest, summary *encoder.Summary) *MapEntry {
	key := body.Expression
	if len(body.Params) > 0 {
		params, _ := json.Marshal(body.Params)
		key = append(append(append([]byte(nil), key...), '\n'), params...)
	}
	fp := encoder.Fingerprint(key)
	id := "maps/" + fp[:20]

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.maps[id]; ok {
		return existing
	}
	entry := &MapEntry{
		ID:         id,
		Token:      uuid.NewSHA1(tokenNamespace, []byte(fp)).String(),
		Expression: body.Expression,
		Params:     body.Params,
		Summary:    summary,
	}
	s.maps[id] = entry
	return entry
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	id := "maps/" + chi.URLParam(r, "id")

	s.mu.RLock()
	entry, ok := s.maps[id]
	s.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "map not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, wireError{Error: msg})
}
