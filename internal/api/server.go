// Package api is the HTTP interface: the public menu and booking
// endpoints, the owner dashboard endpoints (authenticated by restaurant
// API key) and the cron endpoint that triggers an email sweep.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/DamianAcri/menulink-sub001/internal/auth"
	"github.com/DamianAcri/menulink-sub001/internal/dispatch"
	"github.com/DamianAcri/menulink-sub001/internal/domain"
	"github.com/DamianAcri/menulink-sub001/internal/reservations"
	"github.com/DamianAcri/menulink-sub001/internal/store"
)

// Sweeper runs one dispatch pass. *dispatch.Dispatcher implements it.
type Sweeper interface {
	Sweep(ctx context.Context) (dispatch.SweepResult, error)
}

// Server holds the handler dependencies.
type Server struct {
	store        *store.Store
	reservations *reservations.Service
	sweeper      Sweeper
	signer       auth.Signer
	cronSecret   string
	clock        domain.Clock
	ids          domain.IDGenerator
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCronSecret sets the bearer token for the cron endpoint. When unset
// the endpoint rejects every request.
func WithCronSecret(secret string) Option {
	return func(s *Server) {
		s.cronSecret = secret
	}
}

// WithSigner sets how API keys are verified. Defaults to auth.Bcrypt.
func WithSigner(signer auth.Signer) Option {
	return func(s *Server) {
		s.signer = signer
	}
}

// WithClock sets the clock. Defaults to domain.SystemClock.
func WithClock(c domain.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

// WithIDs sets the id generator for created rows. Defaults to UUIDv7.
func WithIDs(g domain.IDGenerator) Option {
	return func(s *Server) {
		s.ids = g
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a Server.
func New(st *store.Store, svc *reservations.Service, sweeper Sweeper, opts ...Option) *Server {
	s := &Server{
		store:        st,
		reservations: svc,
		sweeper:      sweeper,
		signer:       auth.Bcrypt{},
		clock:        domain.SystemClock{},
		ids:          domain.UUIDv7Generator{},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/public/{slug}/menu", s.handlePublicMenu)
	mux.HandleFunc("POST /api/public/{slug}/reservations", s.handlePublicReservation)

	mux.HandleFunc("POST /api/cron/dispatch-emails", s.handleCronDispatch)

	const r = "/api/restaurants/{rid}"
	mux.Handle("GET "+r+"/settings", s.owner(s.handleGetSettings))
	mux.Handle("PUT "+r+"/settings", s.owner(s.handlePutSettings))

	mux.Handle("GET "+r+"/reservations", s.owner(s.handleListReservations))
	mux.Handle("POST "+r+"/reservations", s.owner(s.handleCreateReservation))
	mux.Handle("GET "+r+"/reservations/{id}", s.owner(s.handleGetReservation))
	mux.Handle("POST "+r+"/reservations/{id}/status", s.owner(s.handleReservationStatus))
	mux.Handle("GET "+r+"/reservations/{id}/emails", s.owner(s.handleReservationEmails))

	mux.Handle("GET "+r+"/menu/categories", s.owner(s.handleListCategories))
	mux.Handle("POST "+r+"/menu/categories", s.owner(s.handleCreateCategory))
	mux.Handle("PUT "+r+"/menu/categories/{id}", s.owner(s.handleUpdateCategory))
	mux.Handle("DELETE "+r+"/menu/categories/{id}", s.owner(s.handleDeleteCategory))
	mux.Handle("GET "+r+"/menu/items", s.owner(s.handleListItems))
	mux.Handle("POST "+r+"/menu/items", s.owner(s.handleCreateItem))
	mux.Handle("PUT "+r+"/menu/items/{id}", s.owner(s.handleUpdateItem))
	mux.Handle("DELETE "+r+"/menu/items/{id}", s.owner(s.handleDeleteItem))

	mux.Handle("GET "+r+"/customers", s.owner(s.handleListCustomers))
	mux.Handle("GET "+r+"/customers/{id}", s.owner(s.handleGetCustomer))
	mux.Handle("PATCH "+r+"/customers/{id}", s.owner(s.handlePatchCustomer))

	mux.Handle("GET "+r+"/staff", s.owner(s.handleListStaff))
	mux.Handle("POST "+r+"/staff", s.owner(s.handleCreateStaff))
	mux.Handle("PUT "+r+"/staff/{id}", s.owner(s.handleUpdateStaff))
	mux.Handle("DELETE "+r+"/staff/{id}", s.owner(s.handleDeleteStaff))
	mux.Handle("GET "+r+"/shifts", s.owner(s.handleListShifts))
	mux.Handle("POST "+r+"/shifts", s.owner(s.handleCreateShift))
	mux.Handle("PUT "+r+"/shifts/{id}", s.owner(s.handleUpdateShift))
	mux.Handle("DELETE "+r+"/shifts/{id}", s.owner(s.handleDeleteShift))

	return s.logRequests(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB().PingContext(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests logs each request and turns handler panics into 500s.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("handler panic", "method", r.Method, "path", r.URL.Path, "panic", p)
				writeJSON(rec, http.StatusInternalServerError, errorBody("internal", "internal error"))
			}
			s.logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		}()

		next.ServeHTTP(rec, r)
	})
}
