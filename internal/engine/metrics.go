package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: сколько действий прошло через стор
	ActionsApplied *prometheus.CounterVec

	// Errors: события, отброшенные до стора (кривой payload, переполнение)
	EventsDropped *prometheus.CounterVec

	// Состояние живого канала (0 - нет, 1 - есть)
	ConnectionState prometheus.Gauge

	// Сколько раз канал пересобирался
	Reconnects prometheus.Counter

	// Фолбэк-поллинг: тики и ошибки
	PollTicks  prometheus.Counter
	PollErrors prometheus.Counter

	// Команды оператора: latency + счетчики по статусу
	CommandDuration *prometheus.HistogramVec
	CommandsTotal   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		ActionsApplied: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashsync_actions_applied_total",
			Help: "Total number of actions applied to the dashboard state.",
		}, []string{"kind"}),

		EventsDropped: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashsync_events_dropped_total",
			Help: "Total number of live events dropped before reaching the store.",
		}, []string{"reason"}), // типы: malformed, unknown_kind

		ConnectionState: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dashsync_connection_state",
			Help: "Current live channel state (0=disconnected, 1=connected).",
		}),

		Reconnects: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dashsync_reconnects_total",
			Help: "Total number of successful live channel reconnections.",
		}),

		PollTicks: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dashsync_poll_ticks_total",
			Help: "Total number of fallback poll requests issued.",
		}),

		PollErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dashsync_poll_errors_total",
			Help: "Total number of failed fallback poll requests.",
		}),

		CommandDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashsync_command_duration_seconds",
			Help:    "Histogram of operator command latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"command", "status"}),

		CommandsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashsync_commands_total",
			Help: "Total number of operator commands issued.",
		}, []string{"command"}),
	}
}
