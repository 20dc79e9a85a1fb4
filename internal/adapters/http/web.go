// Package web serves the activity board page and its form endpoints.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"activityboard/internal/adapters/http/middleware"
	"activityboard/internal/adapters/http/perf"
	"activityboard/internal/application/board"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// DefaultTitle is the page heading when Config.Title is empty.
const DefaultTitle = "Mergington High School"

// Config carries everything NewMux needs besides the board.
type Config struct {
	Title   string
	CSRFKey []byte
	// FlashKey protects the per-visitor outcome cookie; derived from CSRFKey when empty.
	FlashKey           []byte
	Secure             bool
	TrustedOrigins     []string
	RateLimitPerSecond int
	SlowRequestMs      int
	Collector          *perf.Collector
	// ExposePerf mounts GET /debug/perf.
	ExposePerf bool
}

// server holds the handler dependencies.
type server struct {
	board     *board.Board
	page      *template.Template
	title     string
	flash     *flashStore
	collector *perf.Collector
	timeNow   func() time.Time
}

// NewMux wires the board routes behind the middleware chain.
// PRE: b is initialised; cfg.CSRFKey is 32 bytes
// POST: Returns a handler serving /, /signup, /unregister, /healthz and /static/
func NewMux(b *board.Board, cfg Config) (http.Handler, error) {
	page, err := parsePage()
	if err != nil {
		return nil, err
	}
	title := cfg.Title
	if title == "" {
		title = DefaultTitle
	}
	flashKey := cfg.FlashKey
	if len(flashKey) == 0 {
		flashKey = cfg.CSRFKey
	}
	s := &server{
		board:     b,
		page:      page,
		title:     title,
		flash:     newFlashStore(flashKey, cfg.Secure),
		collector: cfg.Collector,
		timeNow:   time.Now,
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	s.registerRoutes(mux, cfg.ExposePerf)

	rate := cfg.RateLimitPerSecond
	if rate <= 0 {
		rate = 10
	}
	limiter := middleware.NewRateLimiter(rate, time.Second)

	// Outermost first on the wire: Timing -> RateLimit -> CSRF -> SecurityHeaders -> mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(cfg.CSRFKey, middleware.CSRFOptions{Secure: cfg.Secure, TrustedOrigins: cfg.TrustedOrigins}),
		middleware.RateLimit(limiter),
		middleware.Timing(cfg.Collector, cfg.SlowRequestMs),
	), nil
}

func (s *server) registerRoutes(mux *http.ServeMux, exposePerf bool) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("POST /unregister", s.handleUnregister)
	mux.HandleFunc("GET /healthz", handleHealthz)
	if exposePerf {
		mux.HandleFunc("GET /debug/perf", s.handlePerf)
	}
}

// parsePage parses the layout and board templates once.
// csrfField is a placeholder replaced per request.
func parsePage() (*template.Template, error) {
	funcs := template.FuncMap{
		"csrfField": func() template.HTML { return "" },
	}
	return template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/board.html")
}
