package metrics

import (
	"errors"
	"net/http"

	"github.com/lborres/bantay/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bantay"

// Recorder counts flow outcomes. It implements core.Observer.
type Recorder struct {
	registry *prometheus.Registry

	logins  *prometheus.CounterVec
	refresh *prometheus.CounterVec
	logouts *prometheus.CounterVec
	purged  prometheus.Counter
}

var _ core.Observer = (*Recorder)(nil)

// New creates a Recorder on its own registry, together with the Go and
// process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Callback attempts by resolution and outcome.",
		}, []string{"resolution", "outcome"}),
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh attempts by outcome.",
		}, []string{"outcome"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Logout attempts by outcome.",
		}, []string{"outcome"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_credentials_purged_total",
			Help:      "Expired refresh credentials removed.",
		}),
	}

	r.registry.MustRegister(
		r.logins,
		r.refresh,
		r.logouts,
		r.purged,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveLogin(kind core.ResolutionKind, err error) {
	resolution := "none"
	if err == nil {
		resolution = kind.String()
	}
	r.logins.WithLabelValues(resolution, outcome(err)).Inc()
}

func (r *Recorder) ObserveRefresh(err error) {
	r.refresh.WithLabelValues(outcome(err)).Inc()
}

func (r *Recorder) ObserveLogout(result core.BestEffort) {
	r.logouts.WithLabelValues(outcome(result.Err)).Inc()
}

func (r *Recorder) ObservePurged(count int64) {
	if count > 0 {
		r.purged.Add(float64(count))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// outcome buckets err by error class.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrInvalidRefreshToken), errors.Is(err, core.ErrInvalidToken):
		return "unauthorized"
	case errors.Is(err, core.ErrValidation):
		return "invalid"
	case errors.Is(err, core.ErrConfiguration):
		return "configuration"
	case errors.Is(err, core.ErrProvider):
		return "provider"
	case errors.Is(err, core.ErrStorage):
		return "storage"
	default:
		return "error"
	}
}
