package internal

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/smartplanner/internal/config"
	"github.com/kazz187/smartplanner/internal/plan"
	"github.com/kazz187/smartplanner/internal/web"
	"github.com/kazz187/smartplanner/pkg/cerr"
	"github.com/kazz187/smartplanner/pkg/clog"
)

const rpcPathPrefix = "/" + plan.PlanServiceName + "/"

type Server struct {
	server     *http.Server
	env        *config.Env
	planServer *plan.Server
	web        *web.Handler
}

func NewServer(env *config.Env, planServer *plan.Server, webHandler *web.Handler) *Server {
	return &Server{
		env:        env,
		planServer: planServer,
		web:        webHandler,
	}
}

// Handler assembles the full request pipeline: health checks, the JSON API
// fallback, the RPC service and the web pages.
func (s *Server) Handler() http.Handler {
	api := chi.NewRouter()
	api.Use(
		clog.SlogChiMiddleware(),
		cerr.NewJSONChiMiddleware(),
	)
	api.NotFound(func(w http.ResponseWriter, r *http.Request) {
		cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
	})

	pages := chi.NewRouter()
	pages.Use(clog.SlogChiMiddleware(clog.WithChiSkip(func(r *http.Request) bool {
		return r.URL.Path == "/favicon.ico"
	})))
	pages.Mount("/", s.web.Routes())

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", api)
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(plan.PlanServiceName)))
	mux.Handle(plan.NewPlanServiceHandler(s.planServer, connect.WithInterceptors(s.interceptors()...)))
	mux.Handle("/", pages)

	return h2c.NewHandler(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.apiKeyMiddleware(mux)), &http2.Server{})
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of
// every request, so cancelling it cancels in-flight handlers.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.env.Addr()
	slog.InfoContext(ctx, "starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) interceptors() []connect.Interceptor {
	return []connect.Interceptor{
		clog.NewSlogConnectInterceptor(clog.WithConnectSkip(clog.SkipHealthCheck)),
		cerr.NewConvertConnectErrorInterceptor(),
	}
}

// apiKeyMiddleware guards the RPC service when an API key is configured.
// Pages and health checks stay open.
func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.env.APIKey == "" || !strings.HasPrefix(r.URL.Path, rpcPathPrefix) {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.env.APIKey)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
