// Package observability holds the Prometheus collectors shared by the step coach binaries.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "step_coach"

var (
	recordsStoredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "records_stored_total",
		Help:      "Number of daily records written to the record store.",
	})
	recordsStoredGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "last_records_stored_timestamp_seconds",
		Help:      "Unix timestamp of the most recent record store write.",
	})
	datasetRecordsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "dataset",
		Name:      "records",
		Help:      "Size of the most recently prepared dataset by origin.",
	}, []string{"origin"})
	trainingCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "model",
		Name:      "trainings_total",
		Help:      "Model builds grouped by outcome.",
	}, []string{"outcome"})
	trainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "model",
		Name:      "training_duration_seconds",
		Help:      "Wall time spent building a model, persistence included.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})
	modelRowsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "model",
		Name:      "training_rows",
		Help:      "Rows used to fit the active model.",
	})
	validationMAEGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "validation",
		Name:      "mean_absolute_error_steps",
		Help:      "Mean absolute error reported by the latest k-fold run.",
	})
	predictionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "predictor",
		Name:      "predictions_total",
		Help:      "Predictions served grouped by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		recordsStoredCounter,
		recordsStoredGauge,
		datasetRecordsGauge,
		trainingCounter,
		trainingDuration,
		modelRowsGauge,
		validationMAEGauge,
		predictionCounter,
	)
}

// RecordRecordsStored counts a successful record store write.
func RecordRecordsStored(n int) {
	if n <= 0 {
		return
	}
	recordsStoredCounter.Add(float64(n))
	recordsStoredGauge.Set(float64(time.Now().Unix()))
}

// RecordDataset publishes the composition of a prepared dataset.
func RecordDataset(real, synthetic int) {
	datasetRecordsGauge.WithLabelValues("real").Set(float64(real))
	datasetRecordsGauge.WithLabelValues("synthetic").Set(float64(synthetic))
}

// RecordTraining observes one model build.
func RecordTraining(started time.Time, rows int, err error) {
	trainingDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		trainingCounter.WithLabelValues("failure").Inc()
		return
	}
	trainingCounter.WithLabelValues("success").Inc()
	modelRowsGauge.Set(float64(rows))
}

// RecordValidation stores the latest cross-validation error.
func RecordValidation(meanAbsoluteError int) {
	validationMAEGauge.Set(float64(meanAbsoluteError))
}

// RecordPrediction counts a prediction by outcome: "model", "short_circuit" or "error".
func RecordPrediction(outcome string) {
	predictionCounter.WithLabelValues(outcome).Inc()
}
