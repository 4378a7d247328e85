package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dutybot"

var (
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "updates_total", Help: "Processed telegram updates",
	})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "handler_errors_total", Help: "Send/handler errors that did not abort a turn",
	})
	Turns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "turns_total", Help: "Conversation turns by outcome",
	}, []string{"outcome"})
	TurnDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "turn_duration_seconds", Help: "Conversation turn latency",
		Buckets: prometheus.DefBuckets,
	})
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "state_transitions_total", Help: "States entered by kind",
	}, []string{"state"})
	AccessDenied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "access_denied_total", Help: "Guard denials by permission",
	}, []string{"permission"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(BotUpdates, HandlerErrors, Turns, TurnDuration, Transitions, AccessDenied, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveTurn(outcome string, d time.Duration) {
	Turns.WithLabelValues(outcome).Inc()
	TurnDuration.Observe(d.Seconds())
}
