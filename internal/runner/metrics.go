package runner

import (
	"github.com/prometheus/client_golang/prometheus"

	"dbbenchtools/pkg/dbbench"
	"dbbenchtools/pkg/stats"
)

// Metrics collects per-run outcome metrics. A nil *Metrics disables
// collection.
type Metrics struct {
	Ok           *prometheus.CounterVec
	Err          *prometheus.CounterVec
	QueryElapsed prometheus.Histogram
	RowsAffected prometheus.Histogram
}

func (m *Metrics) Register(r prometheus.Registerer) {
	taskLabels := []string{"task"}

	m.Ok = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dbbench_runs_ok",
		Help: "Total number of completed dbbench runs",
	}, taskLabels)
	r.MustRegister(m.Ok)

	m.Err = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dbbench_runs_err",
		Help: "Total number of failed dbbench runs",
	}, taskLabels)
	r.MustRegister(m.Err)

	m.QueryElapsed = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dbbench_query_elapsed_ms",
		Help:    "Per-query execution time reported by dbbench",
		Buckets: stats.ExpBuckets(0.1, 1.5, 600000),
	})
	r.MustRegister(m.QueryElapsed)

	m.RowsAffected = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dbbench_query_rows_affected",
		Help:    "Per-query rows affected reported by dbbench",
		Buckets: stats.ExpBuckets(1, 2, 1<<30),
	})
	r.MustRegister(m.RowsAffected)
}

func (m *Metrics) observeOutcome(task string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Err.WithLabelValues(task).Inc()
	} else {
		m.Ok.WithLabelValues(task).Inc()
	}
}

func (m *Metrics) observeQueries(queries []dbbench.QueryStat) {
	if m == nil {
		return
	}
	for _, q := range queries {
		m.QueryElapsed.Observe(q.ElapsedMillis())
		m.RowsAffected.Observe(float64(q.RowsAffected))
	}
}
