// Package metrics wraps the server's Prometheus counters and gauges,
// following the enable/no-op pattern the teacher uses in pkg/metrics:
// nothing is registered, and every recorder is a cheap nil check, until
// InitRegistry is called.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu       sync.Mutex
	registry *prometheus.Registry
	server   *Server
)

// Server is a minimal handle on the metrics HTTP listener, returned so the
// caller can know which port it bound and shut it down later.
type Server struct {
	Addr string
	http *http.Server
}

// Close shuts down the metrics HTTP listener.
func (s *Server) Close() error {
	if s == nil || s.http == nil {
		return nil
	}
	return s.http.Close()
}

// InitRegistry enables metrics collection and starts the Prometheus HTTP
// endpoint on the given port. Calling it more than once is a no-op.
func InitRegistry(port int) (*Server, error) {
	mu.Lock()
	defer mu.Unlock()

	if registry != nil {
		return server, nil
	}

	registry = prometheus.NewRegistry()
	registerCollectors(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := ":" + strconv.Itoa(port)
	httpSrv := &http.Server{Addr: addr, Handler: mux}
	server = &Server{Addr: addr, http: httpSrv}

	go func() {
		_ = httpSrv.ListenAndServe()
	}()

	return server, nil
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return registry != nil
}

// GetRegistry returns the active registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}

var (
	connectionsAccepted prometheus.Counter
	connectionsActive   prometheus.Gauge
	connectionsRejected prometheus.Counter
	messagesHandled     *prometheus.CounterVec
	decodeErrors        prometheus.Counter
)

func registerCollectors(reg *prometheus.Registry) {
	connectionsAccepted = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "safesecd_connections_accepted_total",
		Help: "Total number of accepted client connections.",
	})
	connectionsActive = promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Name: "safesecd_connections_active",
		Help: "Number of connection pipelines currently running.",
	})
	connectionsRejected = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "safesecd_connections_rejected_total",
		Help: "Total number of connections rejected because the server was shutting down.",
	})
	messagesHandled = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "safesecd_messages_handled_total",
		Help: "Total number of RPC messages (requests and notifications) handled, by session type.",
	}, []string{"session"})
	decodeErrors = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "safesecd_decode_errors_total",
		Help: "Total number of fatal wire-format decode errors that closed a connection.",
	})
}

// ConnectionAccepted records a newly accepted connection.
func ConnectionAccepted() {
	if !IsEnabled() {
		return
	}
	connectionsAccepted.Inc()
	connectionsActive.Inc()
}

// ConnectionClosed records a connection pipeline exiting.
func ConnectionClosed() {
	if !IsEnabled() {
		return
	}
	connectionsActive.Dec()
}

// ConnectionRejected records a connection turned away during shutdown.
func ConnectionRejected() {
	if !IsEnabled() {
		return
	}
	connectionsRejected.Inc()
}

// MessageHandled records one successfully dispatched message for the given
// session type ("boot" or "auth").
func MessageHandled(session string) {
	if !IsEnabled() {
		return
	}
	messagesHandled.WithLabelValues(session).Inc()
}

// DecodeError records a fatal decode error.
func DecodeError() {
	if !IsEnabled() {
		return
	}
	decodeErrors.Inc()
}
