package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/services/realtime"
)

const metricsNamespace = "darasa"

// Metrics owns the Prometheus registry exposed at GET /metrics.
type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	logins     *prometheus.CounterVec
	markEvents prometheus.Counter
}

// NewMetrics builds a registry with the API collectors. When hub is not nil, its
// connected clients and dropped deliveries are exported too.
func NewMetrics(hub *realtime.Hub) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "path", "code"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		markEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "mark_events_total",
			Help:      "newMark events handed to the realtime hub.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.logins,
		m.markEvents,
	)

	if hub != nil {
		m.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "realtime_clients",
				Help:      "Connected realtime clients.",
			}, func() float64 { return float64(hub.Count()) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "realtime_dropped_total",
				Help:      "Realtime deliveries dropped because a client queue was full.",
			}, func() float64 { return float64(hub.Dropped()) }),
		)
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) loginSucceeded() { m.logins.WithLabelValues("success").Inc() }
func (m *Metrics) loginFailed()    { m.logins.WithLabelValues("failure").Inc() }

// CountMarks wraps next so that every published MarkEvent is counted.
func (m *Metrics) CountMarks(next school.MarkPublisher) school.MarkPublisher {
	return markCounter{next: next, counter: m.markEvents}
}

type markCounter struct {
	next    school.MarkPublisher
	counter prometheus.Counter
}

func (mc markCounter) PublishMark(evt school.MarkEvent) {
	mc.counter.Inc()
	if mc.next != nil {
		mc.next.PublishMark(evt)
	}
}

// middleware counts requests once the response status is known.
// Handler errors are rendered here so the status reflects them.
func (m *Metrics) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}
			path := ctx.Path()
			if path == "" {
				path = "unmatched"
			}
			m.requests.WithLabelValues(
				ctx.Request().Method, path, strconv.Itoa(ctx.Response().Status),
			).Inc()
			return nil
		}
	}
}
