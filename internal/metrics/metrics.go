package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors. Each instance owns
// its registry so tests can build as many as they need. All methods are
// no-ops on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	UsersRegistered   prometheus.Counter
	LoginFailures     prometheus.Counter
	HouseholdsCreated prometheus.Counter
	ListsCreated      prometheus.Counter
	ItemsCreated      prometheus.Counter
	ItemsToggled      *prometheus.CounterVec
	AccessDenied      *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		UsersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shoplist_users_registered_total",
			Help: "Total number of registered users",
		}),
		LoginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shoplist_login_failures_total",
			Help: "Total number of rejected login attempts",
		}),
		HouseholdsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shoplist_households_created_total",
			Help: "Total number of households created",
		}),
		ListsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shoplist_lists_created_total",
			Help: "Total number of shopping lists created",
		}),
		ItemsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shoplist_items_created_total",
			Help: "Total number of shopping items created",
		}),
		ItemsToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shoplist_items_toggled_total",
			Help: "Bought flag toggles by resulting state",
		}, []string{"bought"}),
		AccessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shoplist_access_denied_total",
			Help: "Operations rejected because the actor is not a household member",
		}, []string{"resource"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shoplist_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.UsersRegistered,
		m.LoginFailures,
		m.HouseholdsCreated,
		m.ListsCreated,
		m.ItemsCreated,
		m.ItemsToggled,
		m.AccessDenied,
		m.RequestDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) IncrementUsersRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

func (m *Metrics) IncrementLoginFailures() {
	if m == nil {
		return
	}
	m.LoginFailures.Inc()
}

func (m *Metrics) IncrementHouseholdsCreated() {
	if m == nil {
		return
	}
	m.HouseholdsCreated.Inc()
}

func (m *Metrics) IncrementListsCreated() {
	if m == nil {
		return
	}
	m.ListsCreated.Inc()
}

func (m *Metrics) IncrementItemsCreated() {
	if m == nil {
		return
	}
	m.ItemsCreated.Inc()
}

func (m *Metrics) ObserveToggle(bought bool) {
	if m == nil {
		return
	}
	m.ItemsToggled.WithLabelValues(strconv.FormatBool(bought)).Inc()
}

// IncrementAccessDenied counts a gate rejection; resource is one of
// "household", "list" or "item".
func (m *Metrics) IncrementAccessDenied(resource string) {
	if m == nil {
		return
	}
	m.AccessDenied.WithLabelValues(resource).Inc()
}

// Middleware records request latency keyed by the matched route pattern, so
// ids in the path do not explode label cardinality.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.
			WithLabelValues(c.Method(), route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	if m == nil {
		return func(c *fiber.Ctx) error {
			return fiber.ErrNotFound
		}
	}
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
}
