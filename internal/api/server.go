// internal/api/server.go
package api

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/rovshanmuradov/openpump/internal/discovery"
	"github.com/rovshanmuradov/openpump/internal/eventlistener"
	"github.com/rovshanmuradov/openpump/internal/metadata"
	"github.com/rovshanmuradov/openpump/internal/pricing"
	"github.com/rovshanmuradov/openpump/internal/token"
	"github.com/rovshanmuradov/openpump/internal/utils/metrics"
	"go.uber.org/zap"
)

// Version is reported by the index route.
const Version = "0.1.0"

// TokenService is the read surface served under /v1/tokens.
type TokenService interface {
	GetToken(ctx context.Context, mint string) (*token.View, error)
	GetMetadata(ctx context.Context, mint string) (*metadata.TokenMetadata, error)
	GetBondingCurve(ctx context.Context, mint string) (*pumpfun.Valuation, error)
	GetPrice(ctx context.Context, mint string) (*pricing.TokenPrice, error)
	SimulateBuy(ctx context.Context, mint string, sol float64) (*pumpfun.BuyQuote, error)
	SimulateSell(ctx context.Context, mint string, tokens float64) (*pumpfun.SellQuote, error)
	RecentTokens(ctx context.Context, limit int) []discovery.DiscoveredToken
	ListTokens(ctx context.Context, p token.ListParams) []token.Listing
}

// StatusFunc reports the ingestion pipeline state.
type StatusFunc func() eventlistener.Status

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	// AllowedOrigins are echoed in Access-Control-Allow-Origin; "*" allows any.
	AllowedOrigins []string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           ":3000",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 10 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// Deps are the collaborators of the server. Hub, Status, Metrics and
// Gatherer may be nil; the matching routes then degrade.
type Deps struct {
	Tokens   TokenService
	Hub      *Hub
	Status   StatusFunc
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

// Server is the REST and streaming front of the service.
type Server struct {
	router  *mux.Router
	handler http.Handler
	server  *http.Server
	deps    Deps
	config  ServerConfig
	started time.Time
	logger  *zap.Logger
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// NewServer builds the router; nothing listens until Start.
func NewServer(config ServerConfig, deps Deps, logger *zap.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		deps:    deps,
		config:  config,
		started: time.Now(),
		logger:  logger.Named("api"),
	}
	s.setupRoutes()
	// CORS wraps the router so preflight requests never reach route matching
	s.handler = s.corsMiddleware(s.router)

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      s.handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.deps.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	if s.deps.Hub != nil {
		s.router.Handle("/v1/stream", s.deps.Hub).Methods(http.MethodGet)
	}

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.Use(s.timeoutMiddleware)

	v1.HandleFunc("/stream/status", s.handleStreamStatus).Methods(http.MethodGet)
	v1.HandleFunc("/tokens", s.handleListTokens).Methods(http.MethodGet)
	// registered before {address} so "recent" is not taken for a mint
	v1.HandleFunc("/tokens/recent", s.handleRecentTokens).Methods(http.MethodGet)
	v1.HandleFunc("/tokens/{address}", s.handleGetToken).Methods(http.MethodGet)
	v1.HandleFunc("/tokens/{address}/metadata", s.handleGetMetadata).Methods(http.MethodGet)
	v1.HandleFunc("/tokens/{address}/bonding", s.handleGetBonding).Methods(http.MethodGet)
	v1.HandleFunc("/tokens/{address}/price", s.handleGetPrice).Methods(http.MethodGet)
	v1.HandleFunc("/tokens/{address}/simulate-buy", s.handleSimulateBuy).Methods(http.MethodPost)
	v1.HandleFunc("/tokens/{address}/simulate-sell", s.handleSimulateSell).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)
}

// Handler exposes the routed handler, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.config.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes stream clients and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.deps.Hub != nil {
		s.deps.Hub.Close()
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		duration := time.Since(start)
		s.deps.Metrics.RecordHTTPRequest(route, wrapper.statusCode, duration)
		s.logger.Debug("Request",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", wrapper.statusCode),
			zap.Duration("duration", duration),
			zap.String("remote", r.RemoteAddr))
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.RequestTimeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	for _, o := range s.config.AllowedOrigins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController and the websocket upgrader reach
// the underlying Hijacker.
func (w *responseWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Hijack is required by the websocket upgrader.
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	// 101 Switching Protocols is written on the raw connection
	w.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}
