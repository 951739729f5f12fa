package center

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "locus_center_registrations_total",
		Help: "Objects registered locally, migrations accepted included",
	})
	dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locus_center_dispatches_total",
		Help: "Operations dispatched by route and outcome",
	}, []string{"route", "outcome"})
	locationUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locus_center_location_updates_total",
		Help: "Per-object location notifications by what they did to the tables",
	}, []string{"outcome"})
	broadcasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locus_center_broadcasts_total",
		Help: "Location updates sent to individual peers",
	}, []string{"outcome"})
	broadcastSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "locus_center_broadcast_seconds",
		Help:    "Time to announce one registration to every peer",
		Buckets: prometheus.DefBuckets,
	})
	tableEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "locus_center_table_entries",
		Help: "Entries in a center's local object table and remote location cache",
	}, []string{"center", "table"})
	migrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locus_center_migrations_total",
		Help: "Outgoing migrations by outcome",
	}, []string{"outcome"})
)
