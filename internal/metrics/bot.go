package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		commandsTotal,
		cashPilotRequestsTotal,
		reconciliationsTotal,
		rateLimitedTotal,
		unauthorizedTotal,
	)
}

var (
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Telegram updates handled, by command.",
		},
		[]string{"command"},
	)

	cashPilotRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cashpilot_requests_total",
			Help: "CashPilot API requests by operation and result.",
		},
		[]string{"operation", "result"},
	)

	reconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliations_total",
			Help: "Closed cash sessions by reconciliation outcome.",
		},
		[]string{"outcome"},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_rate_limited_total",
			Help: "Updates rejected by the per-user rate limiter.",
		},
	)

	unauthorizedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_unauthorized_total",
			Help: "Updates rejected because the user is not whitelisted.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// IncCommand counts a handled command. Empty names are counted as "text".
func IncCommand(command string) {
	command = norm(strings.TrimPrefix(command, "/"))
	if command == "" {
		command = "text"
	}
	commandsTotal.WithLabelValues(command).Inc()
}

// IncCashPilotRequest counts a CashPilot API call.
func IncCashPilotRequest(operation, result string) {
	cashPilotRequestsTotal.WithLabelValues(norm(operation), norm(result)).Inc()
}

// IncReconciliation counts a closed session by outcome label.
func IncReconciliation(outcome string) {
	reconciliationsTotal.WithLabelValues(norm(outcome)).Inc()
}

// IncRateLimited counts a rate-limited update.
func IncRateLimited() { rateLimitedTotal.Inc() }

// IncUnauthorized counts an update from a non-whitelisted user.
func IncUnauthorized() { unauthorizedTotal.Inc() }
