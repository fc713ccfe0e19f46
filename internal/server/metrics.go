package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	runsStarted *prometheus.CounterVec
}

func newMetrics(r prometheus.Registerer) *Metrics {
	m := &Metrics{}

	m.runsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "benchagent_work_requests_total",
		Help: "Total number of accepted work submissions",
	}, []string{"task"})
	r.MustRegister(m.runsStarted)

	return m
}
