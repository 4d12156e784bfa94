// Package http exposes the ledger and its reports as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/metrics"
	"bilancio/internal/middleware/auth"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/report"
)

// LedgerService is the write and listing side used by the handlers.
// services.TransactionService implements it.
type LedgerService interface {
	List(ctx context.Context, ownerID string, f core.FilterSpec) (core.Page, error)
	Get(ctx context.Context, ownerID, id string) (core.Transaction, error)
	Create(ctx context.Context, ownerID string, in core.TransactionInput) (core.Transaction, error)
	Update(ctx context.Context, ownerID, id string, p core.TransactionPatch) (core.Transaction, error)
	Delete(ctx context.Context, ownerID, id string) error
	Summary(ctx context.Context, ownerID string, r core.DateRange) (core.Summary, error)
	Categories(ctx context.Context, ownerID string) ([]core.Category, error)
}

// Pinger reports whether the store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the server. All are required.
type Deps struct {
	Ledger  LedgerService
	Reports report.Reporter
	Store   Pinger
	Auth    *auth.Authenticator
	Logger  *log.Logger
}

type Options struct {
	RateLimitPerMinute int
	BlockSuspicious    bool
	TrustedProxies     []string
	ReadyTimeout       time.Duration
}

type Server struct {
	http.Server
	ledger   LedgerService
	reports  report.Reporter
	store    Pinger
	auth     *auth.Authenticator
	limiter  *ratelimit.Limiter
	detector *security.Detector
	logger   *log.Logger

	readyTimeout time.Duration
	startedAt    time.Time
	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 5 * time.Second
	}
	logger := deps.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		ledger:       deps.Ledger,
		reports:      deps.Reports,
		store:        deps.Store,
		auth:         deps.Auth,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:     security.NewDetector(opts.BlockSuspicious),
		logger:       logger,
		readyTimeout: opts.ReadyTimeout,
		startedAt:    time.Now(),
		now:          time.Now,
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(s.detector.ExtractClientIP).Middleware(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	s.handle(mux, "GET /healthz", s.handleHealth, public)
	s.handle(mux, "GET /readyz", s.handleReady, public)
	s.handle(mux, "GET /metrics", metrics.Handler().ServeHTTP, public)

	s.handle(mux, "GET /api/transactions", s.handleListTransactions, read)
	s.handle(mux, "POST /api/transactions", s.handleCreateTransaction, write)
	s.handle(mux, "GET /api/transactions/summary", s.handleSummary, read)
	s.handle(mux, "GET /api/transactions/{id}", s.handleGetTransaction, read)
	s.handle(mux, "PATCH /api/transactions/{id}", s.handleUpdateTransaction, write)
	s.handle(mux, "DELETE /api/transactions/{id}", s.handleDeleteTransaction, write)
	s.handle(mux, "GET /api/categories", s.handleListCategories, read)

	s.handle(mux, "GET /api/reports/monthly", s.handleMonthlyReport, read)
	s.handle(mux, "GET /api/reports/yearly", s.handleYearlyReport, read)
	s.handle(mux, "GET /api/reports/date-range", s.handleDateRangeReport, read)
	s.handle(mux, "GET /api/reports/top-categories", s.handleTopCategories, read)
}

type access int

const (
	public access = iota
	read
	write
)

// handle registers h behind the middleware its access level needs. Writes
// are rate limited per owner.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc, level access) {
	var handler http.Handler = h
	if level == write {
		handler = s.limiter.Middleware(ownerOf, func(w http.ResponseWriter, r *http.Request) {
			log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
				"Rate limit exceeded", log.FieldOwnerID, ownerOf(r), log.FieldPath, r.URL.Path)
			TooManyRequestsError("rate limit exceeded, retry later").Write(w)
		})(handler)
	}
	if level != public {
		handler = s.auth.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(),
				"Unauthenticated request", log.FieldError, err, log.FieldPath, r.URL.Path)
			UnauthorizedError("unauthorized").Write(w)
		})(handler)
	}
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace.SetRoute(r.Context(), r.Pattern)
		handler.ServeHTTP(w, r)
	}))
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
