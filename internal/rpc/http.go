package rpc

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServerConfig is the listener configuration for both the RPC transport
// and the ambient observability HTTP mux.
type ServerConfig struct {
	ListenAddress        string
	MetricsListenAddress string
}

// NewRPCServer wraps mcpSrv's streamable-HTTP transport in an
// http.Server bound to cfg.ListenAddress.
func NewRPCServer(cfg ServerConfig, mcpSrv *mcpserver.MCPServer) *http.Server {
	handler := mcpserver.NewStreamableHTTPServer(mcpSrv)
	return &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: handler,
	}
}

// NewMetricsServer builds the ambient HTTP mux exposing /healthz and
// /metrics, bound to cfg.MetricsListenAddress.
func NewMetricsServer(cfg ServerConfig, reg prometheus.Gatherer) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:    cfg.MetricsListenAddress,
		Handler: r,
	}
}
