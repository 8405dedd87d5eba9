package consumer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingest outcomes, one per path a fetched message can take.
const (
	outcomeUpserted    = "upserted"
	outcomeIgnored     = "ignored"
	outcomePermanent   = "permanent"
	outcomeRetry       = "retry"
	outcomeUndecodable = "undecodable"
)

var (
	ingestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "step_coach",
		Subsystem: "ingest",
		Name:      "messages_total",
		Help:      "Daily activity messages by ingest outcome.",
	}, []string{"outcome"})

	latestDayGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "step_coach",
		Subsystem: "ingest",
		Name:      "latest_day_timestamp_seconds",
		Help:      "Start of the most recent calendar day stored from the activity topic.",
	})

	commitErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "step_coach",
		Subsystem: "ingest",
		Name:      "commit_errors_total",
		Help:      "Offset commits that failed and will be redelivered.",
	})
)

func init() {
	prometheus.MustRegister(ingestCounter, latestDayGauge, commitErrorCounter)
}

func recordOutcome(outcome string) {
	ingestCounter.WithLabelValues(outcome).Inc()
}

var latestDay struct {
	sync.Mutex
	unix int64
}

// recordDayStored advances the latest-day gauge; late or replayed days leave it unchanged.
func recordDayStored(day time.Time) {
	latestDay.Lock()
	defer latestDay.Unlock()
	if day.Unix() <= latestDay.unix {
		return
	}
	latestDay.unix = day.Unix()
	latestDayGauge.Set(float64(latestDay.unix))
}
