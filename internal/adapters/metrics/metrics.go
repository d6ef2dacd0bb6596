package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bnema/anicord/internal/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "anicord"

// Metrics owns the bot's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	catalogRequests *prometheus.CounterVec
	catalogDuration *prometheus.HistogramVec
	commands        *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
	sessionsTotal   prometheus.Counter
	pageTurns       prometheus.Counter
}

var _ pagination.Observer = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		catalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "requests_total",
			Help:      "Catalog requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		catalogDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "request_duration_seconds",
			Help:      "Catalog request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "commands_total",
			Help:      "Chat commands by name and outcome.",
		}, []string{"command", "outcome"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pagination",
			Name:      "sessions_active",
			Help:      "Paginated messages still accepting navigation.",
		}),
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pagination",
			Name:      "sessions_total",
			Help:      "Paginated messages opened.",
		}),
		pageTurns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pagination",
			Name:      "page_turns_total",
			Help:      "Pages changed by navigation.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.catalogRequests,
		m.catalogDuration,
		m.commands,
		m.sessionsActive,
		m.sessionsTotal,
		m.pageTurns,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CommandHandled(command, outcome string) {
	m.commands.WithLabelValues(command, outcome).Inc()
}

func (m *Metrics) SessionStarted() {
	m.sessionsTotal.Inc()
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionExpired() {
	m.sessionsActive.Dec()
}

func (m *Metrics) PageTurned() {
	m.pageTurns.Inc()
}

func (m *Metrics) observeCatalog(operation string, started time.Time, err error) {
	m.catalogDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	m.catalogRequests.WithLabelValues(operation, outcome(err)).Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	logger.Info("metrics listening", zap.String("addr", listener.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve metrics: %w", err)
	}
}
