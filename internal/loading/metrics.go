package loading

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pendingLoads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meshbrowse_pending_loads",
		Help: "The number of asset loads the current view is waiting for.",
	})

	readyTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meshbrowse_ready_transitions_total",
		Help: "The number of times a view finished loading.",
	})

	staleCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meshbrowse_stale_completions_total",
		Help: "The number of completions dropped because their handle was no longer tracked.",
	})
)
