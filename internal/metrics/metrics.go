package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resumeAnalysis = "resume_analysis"

	analysesTotal       = "analyses_total"
	attemptsTotal       = "attempts_total"
	scorerFallbackTotal = "scorer_fallback_total"
	analysisDuration    = "duration_seconds"
	stuckResetTotal     = "stuck_reset_total"

	// Labels
	statusLabel = "status"
	stageLabel  = "stage"
)

var analysesTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: resumeAnalysis,
		Name:      analysesTotal,
		Help:      "number of finished analyses by terminal status",
	},
	[]string{statusLabel},
)

var attemptsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: resumeAnalysis,
		Name:      attemptsTotal,
		Help:      "number of failed analysis attempts by failing stage",
	},
	[]string{stageLabel},
)

var scorerFallbackTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: resumeAnalysis,
		Name:      scorerFallbackTotal,
		Help:      "number of times the AI scorer fell back to the deterministic scorer",
	},
)

var analysisDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Subsystem: resumeAnalysis,
		Name:      analysisDuration,
		Help:      "wall time of a whole analysis run, retries included",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 900},
	},
)

var stuckResetTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: resumeAnalysis,
		Name:      stuckResetTotal,
		Help:      "number of analyzing resumes reset to pending by the sweeper",
	},
)

func IncreaseAnalysesTotal(status string) {
	analysesTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func IncreaseFailedAttempts(stage string) {
	attemptsTotalMetric.With(prometheus.Labels{stageLabel: stage}).Inc()
}

func IncreaseScorerFallback() {
	scorerFallbackTotalMetric.Inc()
}

func ObserveAnalysisDuration(d time.Duration) {
	analysisDurationMetric.Observe(d.Seconds())
}

func AddStuckReset(n int) {
	stuckResetTotalMetric.Add(float64(n))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(analysesTotalMetric)
	prometheus.MustRegister(attemptsTotalMetric)
	prometheus.MustRegister(scorerFallbackTotalMetric)
	prometheus.MustRegister(analysisDurationMetric)
	prometheus.MustRegister(stuckResetTotalMetric)
}
