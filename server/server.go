package server

import (
	"net/http"

	"github.com/hupe1980/parlance"
	"github.com/hupe1980/parlance/logging"
)

// Options configures a Server.
type Options struct {
	// CORSAllowedOrigins lists origins allowed to call the API from a browser.
	CORSAllowedOrigins []string
	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
	// MaxConcurrentUpstream caps concurrent start-session and summary
	// requests. Zero means unlimited.
	MaxConcurrentUpstream int
	Logger                logging.Logger
}

// Server routes HTTP requests to a Parlance instance.
type Server struct {
	app     *parlance.Parlance
	opts    Options
	mux     *http.ServeMux
	limiter *UpstreamLimiter
}

// New creates a Server for app.
func New(app *parlance.Parlance, optFns ...func(o *Options)) *Server {
	opts := Options{MaxBodyBytes: 1 << 20, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	s := &Server{app: app, opts: opts, mux: http.NewServeMux(), limiter: NewUpstreamLimiter(opts.MaxConcurrentUpstream)}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", HealthHandler{})

	s.mux.Handle("/api/language/start-session", limitUpstream(s.limiter,
		StartSessionHandler{App: s.app, MaxBodyBytes: s.opts.MaxBodyBytes, Logger: s.opts.Logger}))
	s.mux.Handle("/api/language/summary", limitUpstream(s.limiter,
		SummaryHandler{App: s.app, MaxBodyBytes: s.opts.MaxBodyBytes, Logger: s.opts.Logger}))

	s.mux.Handle("/api/personas", PersonasHandler{App: s.app})
	s.mux.Handle("/api/memories/{persona}", MemoriesHandler{App: s.app, Logger: s.opts.Logger})
	s.mux.Handle("/api/sessions", SessionsHandler{App: s.app, Logger: s.opts.Logger})
	s.mux.Handle("/api/sessions/{id}", SessionHandler{App: s.app, Logger: s.opts.Logger})

	s.mux.Handle("/", NotFoundHandler{})
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = CORS(s.opts.CORSAllowedOrigins, h)
	h = Recover(s.opts.Logger, h)
	h = AccessLog(s.opts.Logger, h)
	h = RequestID(h)
	return h
}
