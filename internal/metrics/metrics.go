package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DegradedWrites counts writes that could not reach the remote store and
	// were applied to the local copy only.
	DegradedWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bandroom_degraded_writes_total",
		Help: "Writes applied locally after the remote store rejected them.",
	}, []string{"collection", "op"})

	Assignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bandroom_slot_assignments_total",
		Help: "Slot assignment attempts by outcome.",
	}, []string{"outcome"})

	Enrichments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bandroom_enrichments_total",
		Help: "Song enrichment calls by outcome.",
	}, []string{"outcome"})

	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bandroom_uploads_total",
		Help: "File uploads by kind and outcome.",
	}, []string{"kind", "outcome"})
)
