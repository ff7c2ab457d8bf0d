package cli

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/getmockd/schemagate/pkg/cache"
	"github.com/getmockd/schemagate/pkg/config"
	"github.com/getmockd/schemagate/pkg/gateway"
	"github.com/getmockd/schemagate/pkg/httputil"
	"github.com/getmockd/schemagate/pkg/metrics"
	"github.com/getmockd/schemagate/pkg/schema"
	"github.com/getmockd/schemagate/pkg/validation"
)

// gatewayServer holds the components behind "schemagate serve".
type gatewayServer struct {
	cfg      *config.Config
	store    *schema.Store
	cache    *cache.Cache
	resolver *gateway.Resolver
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// newGatewayServer wires the schema store, validator cache and resolver
// from cfg. The cache is empty until preload is called.
func newGatewayServer(cfg *config.Config, log *slog.Logger) *gatewayServer {
	reg := prometheus.NewRegistry()
	mt := metrics.New(reg)
	store := schema.NewStore(cfg.App.SchemaDir)

	return &gatewayServer{
		cfg:   cfg,
		store: store,
		cache: cache.New(store, cfg.App.OpenAPIValidator.CachedFileLimit,
			cache.WithCompiler(newCompiler(cfg)),
			cache.WithLogger(log),
			cache.WithMetrics(mt)),
		resolver: gateway.NewResolver(store, gateway.Policy{
			UseSecondary:     cfg.App.UseLayer2Config,
			MandateSecondary: cfg.App.MandateLayer2Config,
		}),
		registry: reg,
		metrics:  mt,
		log:      log,
	}
}

// newCompiler builds the validator compiler from the openAPIValidator
// settings.
func newCompiler(cfg *config.Config) *validation.Compiler {
	v := cfg.App.OpenAPIValidator
	opts := validation.Options{
		ExcludeRequestBody: v.ExcludeRequestBody,
		SingleStep:         v.SingleStep,
	}
	if v.CheckSecurity {
		opts.AuthenticationFunc = validation.CredentialsPresent
	}
	return validation.NewCompiler(opts)
}

// preload warms the validator cache from the schema directory.
func (s *gatewayServer) preload() {
	limit := s.cfg.App.OpenAPIValidator.CachedFileLimit
	s.log.Info("preloading schemas", "dir", s.cfg.App.SchemaDir, "limit", limit)
	s.cache.Preload(s.cfg.App.SchemaDir, limit)
	s.log.Info("schemas preloaded", "cached", s.cache.Len())
}

// handler returns the HTTP routes: the operational endpoints plus the
// validation middleware in front of the acknowledgement handler for every
// other path.
func (s *gatewayServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler(s.registry))
	mux.HandleFunc("/debug/schemas", s.handleSchemas)
	mux.Handle("/", gateway.NewMiddleware(gateway.AckHandler(), s.resolver, s.cache,
		gateway.WithLevel(s.cfg.ProtocolServerLevel()),
		gateway.WithFailOpen(s.cfg.App.OpenAPIValidator.FailOpen),
		gateway.WithLogger(s.log),
		gateway.WithMetrics(s.metrics)))
	return mux
}

func (s *gatewayServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// schemasResponse is the body of /debug/schemas.
type schemasResponse struct {
	Level    string           `json:"level"`
	Capacity int              `json:"capacity"`
	Entries  []cache.Snapshot `json:"entries"`
}

func (s *gatewayServer) handleSchemas(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet) {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, schemasResponse{
		Level:    s.cfg.ProtocolServerLevel(),
		Capacity: s.cache.Capacity(),
		Entries:  s.cache.Snapshot(),
	})
}
