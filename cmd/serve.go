package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"

	"github.com/recollect-ai/recollect/pkg/archive"
	"github.com/recollect-ai/recollect/pkg/conversation"
	"github.com/recollect-ai/recollect/pkg/telemetry"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recollect_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recollect_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve conversation memory over HTTP.

Endpoints:
  POST /v1/conversation/add      append a message
  POST /v1/conversation/context  assemble a bounded request context
  GET  /v1/conversation/stats    memory statistics
  GET  /v1/sessions              list saved sessions
  POST /v1/sessions/save         persist the current session
  POST /v1/sessions/load         load a saved session
  POST /v1/index/search          search the TF-IDF index
  GET  /healthz                  liveness probe
  GET  /metrics                  Prometheus metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("session", "", "session to load on startup")
	serveCmd.Flags().String("archive-db", "", "SQLite path for pruned-message archive (empty = no archive)")
	serveCmd.Flags().Bool("trace", false, "enable OpenTelemetry tracing")
	serveCmd.Flags().String("trace-exporter", "stdout", "trace exporter: stdout or otlp")
	serveCmd.Flags().String("trace-endpoint", "", "OTLP gRPC collector endpoint")

	_ = viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("trace.enabled", serveCmd.Flags().Lookup("trace"))
	_ = viper.BindPFlag("trace.exporter", serveCmd.Flags().Lookup("trace-exporter"))
	_ = viper.BindPFlag("trace.endpoint", serveCmd.Flags().Lookup("trace-endpoint"))
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// mw wraps a handler with request logging, metrics, and a trace span.
func mw(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx, span := telemetry.Tracer().Start(r.Context(), route)
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r.WithContext(ctx))

		elapsed := time.Since(start)
		httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		span.SetAttributes(attribute.Int("http.status_code", rec.status))

		slog.Info("request",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration", elapsed)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := viper.GetString("serve.addr")
	if addr == "" {
		addr = ":8080"
	}

	shutdownTrace, err := telemetry.Init(cmd.Context(), telemetry.Config{
		Enabled:  viper.GetBool("trace.enabled"),
		Exporter: viper.GetString("trace.exporter"),
		Endpoint: viper.GetString("trace.endpoint"),
	})
	if err != nil {
		return err
	}

	mem := conversation.New(memoryConfig())

	if dbPath, _ := cmd.Flags().GetString("archive-db"); dbPath != "" {
		store, err := archive.Open(dbPath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		mem.SetArchiver(store)
	}

	if name, _ := cmd.Flags().GetString("session"); name != "" {
		report, err := mem.LoadSession(name)
		if err != nil {
			return err
		}
		slog.Info("session loaded", "session", name,
			"messages", report.Messages, "summaries", report.Summaries, "skipped", report.Skipped)
	}

	api := &ConversationAPI{mem: mem}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, mw)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("server shutdown", "error", err)
	}
	if err := shutdownTrace(ctx); err != nil {
		slog.Warn("trace shutdown", "error", err)
	}
	return nil
}
