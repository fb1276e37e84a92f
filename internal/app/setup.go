// Package app wires the catalog service together: backends, service, HTTP handler and servers.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"sort"

	"github.com/abgdnv/catalog/internal/auth"
	"github.com/abgdnv/catalog/internal/config"
	"github.com/abgdnv/catalog/internal/metrics"
	"github.com/abgdnv/catalog/internal/provision"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/internal/transport/rest"
	pkgconfig "github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/server"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// StoreFactory builds a CatalogStore over an open database handle.
type StoreFactory func(h *provision.Handle) (store.CatalogStore, error)

// CheckerFactory builds a PermissionChecker over an open database handle.
type CheckerFactory func(h *provision.Handle) (auth.PermissionChecker, error)

// Stores maps the backends.store configuration key to its implementation.
var Stores = map[string]StoreFactory{
	pkgconfig.DriverPostgres: func(h *provision.Handle) (store.CatalogStore, error) {
		if h.Pool == nil {
			return nil, fmt.Errorf("postgres store needs a postgres database, got %q", h.Driver)
		}
		return store.NewPgStore(h.Pool), nil
	},
	pkgconfig.DriverSQLite: func(h *provision.Handle) (store.CatalogStore, error) {
		if h.DB == nil {
			return nil, fmt.Errorf("sqlite store needs a sqlite database, got %q", h.Driver)
		}
		return store.NewSQLiteStore(h.DB), nil
	},
}

// Checkers maps the backends.authorizer configuration key to its implementation.
var Checkers = map[string]CheckerFactory{
	pkgconfig.DriverPostgres: func(h *provision.Handle) (auth.PermissionChecker, error) {
		if h.Pool == nil {
			return nil, fmt.Errorf("postgres authorizer needs a postgres database, got %q", h.Driver)
		}
		return auth.NewPgChecker(h.Pool), nil
	},
	pkgconfig.DriverSQLite: func(h *provision.Handle) (auth.PermissionChecker, error) {
		if h.DB == nil {
			return nil, fmt.Errorf("sqlite authorizer needs a sqlite database, got %q", h.Driver)
		}
		return auth.NewSQLiteChecker(h.DB), nil
	},
}

type Dependencies struct {
	CatalogService service.CatalogService
	Authorizer     auth.Authorizer
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	AuthScheme     string
	AuthRealm      string
	Tracing        bool
}

// SetupDependencies resolves the configured backends from the registries and builds the service graph.
// m may be nil when metrics are disabled.
func SetupDependencies(h *provision.Handle, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*Dependencies, error) {
	newStore, ok := Stores[cfg.Backends.Store]
	if !ok {
		return nil, fmt.Errorf("unknown store backend %q, available: %v", cfg.Backends.Store, keys(Stores))
	}
	newChecker, ok := Checkers[cfg.Backends.Authorizer]
	if !ok {
		return nil, fmt.Errorf("unknown authorizer backend %q, available: %v", cfg.Backends.Authorizer, keys(Checkers))
	}

	catalogStore, err := newStore(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	checker, err := newChecker(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorizer: %w", err)
	}

	catalogStore = store.WithCircuitBreaker(catalogStore, cfg.Breaker, logger)
	var authorizer auth.Authorizer = auth.NewGate(checker, cfg.Auth.Scheme, logger)
	if m != nil {
		catalogStore = store.WithObserver(catalogStore, m)
		authorizer = auth.WithObserver(authorizer, m)
	}

	return &Dependencies{
		CatalogService: service.NewService(catalogStore),
		Authorizer:     authorizer,
		Metrics:        m,
		Logger:         logger,
		AuthScheme:     cfg.Auth.Scheme,
		AuthRealm:      cfg.Auth.Realm,
		Tracing:        cfg.Telemetry.Enabled,
	}, nil
}

// SetupHttpHandler builds the router with the shared middleware stack and the catalog routes.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	var extra []func(http.Handler) http.Handler
	if deps.Metrics != nil {
		extra = append(extra, deps.Metrics.Middleware)
	}
	mux := server.NewChiRouter(deps.Logger, extra...)

	api := rest.NewAPI(deps.CatalogService, deps.Authorizer, deps.Logger, deps.AuthScheme, deps.AuthRealm)
	api.Routes(mux)

	if deps.Tracing {
		return otelhttp.NewHandler(mux, "catalog",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}))
	}
	return mux
}

// SetupHttpServer creates and configures an HTTP server for the catalog API.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}, SetupHttpHandler(deps))
}

// SetupMetricsServer serves /metrics on its own address.
func SetupMetricsServer(m *metrics.Metrics, addr string) *http.Server {
	mux := chi.NewRouter()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}

// SetupPprofServer serves the runtime profiling endpoints on their own address.
func SetupPprofServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return &http.Server{Addr: addr, Handler: mux}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
