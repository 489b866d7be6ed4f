package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the snapshot refresh worker

var (
	// Fetch metrics
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_fetches_total",
			Help: "Total number of source page fetches",
		},
		[]string{"tour", "category", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tennis_fetch_duration_seconds",
			Help:    "Duration of source page fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	// Parse metrics
	ParsedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_parsed_records_total",
			Help: "Total number of records parsed from source pages",
		},
		[]string{"tour", "category"},
	)

	SkippedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_skipped_records_total",
			Help: "Total number of malformed source records skipped",
		},
		[]string{"tour", "category"},
	)

	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_refresh_runs_total",
			Help: "Total number of snapshot refresh runs",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tennis_refresh_run_duration_seconds",
			Help:    "Duration of snapshot refresh runs in seconds",
			Buckets: []float64{30, 60, 120, 300, 600, 1200, 3600},
		},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tennis_last_successful_run_timestamp",
			Help: "Timestamp of the last successfully published snapshot",
		},
	)

	// Snapshot content gauges
	PlayersIngested = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tennis_players_ingested",
			Help: "Number of players in the last published snapshot",
		},
	)

	MatchesIngested = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tennis_matches_ingested",
			Help: "Number of matches in the last published snapshot",
		},
	)

	SurfaceStatsIngested = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tennis_surface_stats_ingested",
			Help: "Number of surface stat rows in the last published snapshot",
		},
	)

	SnapshotSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tennis_snapshot_size_bytes",
			Help: "Size of the last published snapshot database file",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tennis_system_uptime_seconds",
			Help: "Worker uptime in seconds",
		},
	)
)

// RecordFetch records a source fetch metric
func RecordFetch(tour, category, status string, duration float64) {
	FetchesTotal.WithLabelValues(tour, category, status).Inc()
	FetchDuration.WithLabelValues(category).Observe(duration)
}

// RecordParse records parsed and skipped record counts for one page
func RecordParse(tour, category string, parsed, skipped int) {
	ParsedRecordsTotal.WithLabelValues(tour, category).Add(float64(parsed))
	SkippedRecordsTotal.WithLabelValues(tour, category).Add(float64(skipped))
}

// RecordRun records a refresh run outcome
func RecordRun(status string, duration float64) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration)

	if status == "success" {
		LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateSnapshotStats updates the last-published-snapshot gauges
func UpdateSnapshotStats(players, matches, surfaceStats int, sizeBytes int64) {
	PlayersIngested.Set(float64(players))
	MatchesIngested.Set(float64(matches))
	SurfaceStatsIngested.Set(float64(surfaceStats))
	SnapshotSizeBytes.Set(float64(sizeBytes))
}
