package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transitions counts lifecycle transition attempts by operation and outcome
// (ok, conflict, out_of_stock, not_found, error, ...).
var Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "booklend_transitions_total",
	Help: "Borrow request transition attempts by operation and outcome.",
}, []string{"op", "outcome"})
