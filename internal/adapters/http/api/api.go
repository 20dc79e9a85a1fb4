// Package api serves the JSON activities API the board consumes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	emailAdapter "activityboard/internal/adapters/email"
	"activityboard/internal/adapters/http/middleware"
	"activityboard/internal/adapters/http/perf"
	"activityboard/internal/domain/activity"
)

// ActivityStore is the persistence the API needs.
type ActivityStore interface {
	List(ctx context.Context) ([]activity.Activity, error)
	GetByName(ctx context.Context, name string) (activity.Activity, error)
	AddParticipant(ctx context.Context, reg activity.Registration) error
	RemoveParticipant(ctx context.Context, activityName, email string) error
}

// Config carries everything NewMux needs besides the store.
type Config struct {
	// Sender mails signup confirmations; nil disables them.
	Sender        emailAdapter.Sender
	Collector     *perf.Collector
	SlowRequestMs int
	ExposePerf    bool
}

type server struct {
	store      ActivityStore
	sender     emailAdapter.Sender
	collector  *perf.Collector
	now        func() time.Time
	generateID func() string
}

// NewMux wires the activities routes behind request timing and security headers.
// PRE: store is initialised
// POST: Returns a handler serving /activities, the signup and unregister actions and /healthz
func NewMux(store ActivityStore, cfg Config) http.Handler {
	s := &server{
		store:      store,
		sender:     cfg.Sender,
		collector:  cfg.Collector,
		now:        time.Now,
		generateID: func() string { return uuid.New().String() },
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux, cfg.ExposePerf)

	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.Timing(cfg.Collector, cfg.SlowRequestMs),
	)
}

func (s *server) registerRoutes(mux *http.ServeMux, exposePerf bool) {
	mux.HandleFunc("GET /activities", s.handleListActivities)
	mux.HandleFunc("POST /activities/{name}/signup", s.handleSignup)
	mux.HandleFunc("POST /activities/{name}/unregister", s.handleUnregister)
	mux.HandleFunc("GET /healthz", handleHealthz)
	if exposePerf {
		mux.HandleFunc("GET /debug/perf", s.handlePerf)
	}
}
