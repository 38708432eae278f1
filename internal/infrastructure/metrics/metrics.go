package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	installs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopify_app",
			Subsystem: "auth",
			Name:      "installs_total",
			Help:      "Authorization redirects issued, by result.",
		},
		[]string{"result"},
	)

	callbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopify_app",
			Subsystem: "auth",
			Name:      "callbacks_total",
			Help:      "Authorization callbacks handled, by result.",
		},
		[]string{"result"},
	)

	guardDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopify_app",
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Access guard outcomes.",
		},
		[]string{"guard", "outcome"},
	)

	logouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shopify_app",
			Subsystem: "auth",
			Name:      "logouts_total",
			Help:      "Caller logouts, explicit or forced by a shop mismatch.",
		},
	)

	uninstalls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shopify_app",
			Subsystem: "webhooks",
			Name:      "uninstalls_total",
			Help:      "app/uninstalled webhooks processed.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		installs,
		callbacks,
		guardDecisions,
		logouts,
		uninstalls,
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordInstall counts an install attempt ("redirected" or "error").
func RecordInstall(result string) {
	installs.WithLabelValues(result).Inc()
}

// RecordCallback counts a callback outcome ("success", "rejected", "error").
func RecordCallback(result string) {
	callbacks.WithLabelValues(result).Inc()
}

// RecordGuard counts a guard decision.
func RecordGuard(guard, outcome string) {
	guardDecisions.WithLabelValues(guard, outcome).Inc()
}

func RecordLogout() {
	logouts.Inc()
}

func RecordUninstall() {
	uninstalls.Inc()
}
