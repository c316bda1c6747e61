package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/microscopium/signup/internal/signup/service"
	"github.com/microscopium/signup/internal/signup/store"
	"github.com/microscopium/signup/pkg/httpx"
	"github.com/microscopium/signup/pkg/slogx"

	_ "github.com/microscopium/signup/api/signup" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	helpMessage  string
	startTime    time.Time
	logger       *slog.Logger

	store  store.Store
	pinger Pinger

	ProvisionService *service.ProvisionService
	NonceService     *service.NonceService
}

// Pinger checks reachability of the remote image data server for the
// readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	buildVersion, helpMessage string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		helpMessage:  helpMessage,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// SetPinger wires the remote server reachability check used by /readyz.
func (r *Router) SetPinger(p Pinger) { r.pinger = p }

func (r *Router) ApplyRoutes() {
	r.registerSignup()
	r.registerAPI()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
//
//	@title			Signup Service API
//	@version		0.1.0
//	@description	Self-service account signup for the image data server. Renders a signup form, validates contact details and provisions experimenter accounts through the server's administrative API.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSignup() {
	h := &SignupHandler{
		ProvisionService: r.ProvisionService,
		NonceService:     r.NonceService,
		HelpMessage:      r.helpMessage,
		Version:          r.buildVersion,
	}

	// GET renders the form - lenient rate limit by IP
	r.Mux.Handle("GET /signup",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST submits the form - strict rate limit by IP + email field to slow
	// bulk account creation
	r.Mux.Handle("POST /signup",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "email"),
		),
	)

	// The bare root is the signup page as far as users are concerned.
	r.Mux.Handle("GET /{$}", http.RedirectHandler("/signup", http.StatusFound))
}

func (r *Router) registerAPI() {
	h := &APISignupHandler{ProvisionService: r.ProvisionService}

	// Programmatic signups skip the browser nonce, so they get the strict
	// limit unconditionally.
	r.Mux.Handle("POST /api/v1/signups",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.pinger),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
