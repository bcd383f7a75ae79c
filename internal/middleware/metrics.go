package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "senioraid_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// TransitionConflicts counts request lifecycle transitions that lost a
	// conditional-update race, by attempted target status.
	TransitionConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "senioraid_request_transition_conflicts_total",
		Help: "Total number of request status transitions rejected by the conditional update",
	}, []string{"target_status"})

	// AssignmentIndexFailures counts failed best-effort updates of the
	// derived volunteer assignment index. The primary transition has already
	// committed when this fires.
	AssignmentIndexFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "senioraid_assignment_index_failures_total",
		Help: "Total number of failed secondary assignment-index updates",
	})
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
