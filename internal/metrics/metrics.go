// Package metrics expone contadores Prometheus del directorio y del API.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder es lo que consumen los servicios y handlers.
type Recorder interface {
	RecordUserCreated(provider string)
	RecordReactivated()
	RecordUnsubscribed()
	RecordLogin(outcome string)
	RecordHTTPStatus(method string, status int)
}

// Collector implementa Recorder sobre client_golang.
type Collector struct {
	usersCreated *prometheus.CounterVec
	reactivated  prometheus.Counter
	unsubscribed prometheus.Counter
	logins       *prometheus.CounterVec
	httpStatus   *prometheus.CounterVec
}

// NewCollector crea los contadores y los registra en reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		usersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dailydevq_users_created_total",
			Help: "Users created, by auth provider.",
		}, []string{"provider"}),
		reactivated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dailydevq_subscriptions_reactivated_total",
			Help: "Unsubscribed users reactivated by a new subscribe or login.",
		}),
		unsubscribed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dailydevq_unsubscribes_total",
			Help: "Successful unsubscribe operations.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dailydevq_google_logins_total",
			Help: "Google login attempts, by outcome.",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dailydevq_http_responses_total",
			Help: "HTTP responses by method and status code.",
		}, []string{"method", "status_code"}),
	}

	reg.MustRegister(c.usersCreated, c.reactivated, c.unsubscribed, c.logins, c.httpStatus)
	return c
}

func (c *Collector) RecordUserCreated(provider string) {
	c.usersCreated.WithLabelValues(provider).Inc()
}

func (c *Collector) RecordReactivated() {
	c.reactivated.Inc()
}

func (c *Collector) RecordUnsubscribed() {
	c.unsubscribed.Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordHTTPStatus(method string, status int) {
	c.httpStatus.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler devuelve el handler de scrape para gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop descarta todas las métricas.
type Nop struct{}

func (Nop) RecordUserCreated(string)     {}
func (Nop) RecordReactivated()           {}
func (Nop) RecordUnsubscribed()          {}
func (Nop) RecordLogin(string)           {}
func (Nop) RecordHTTPStatus(string, int) {}
