package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/vulnscout/vulnscout/internal/stats"
)

// Snapshot is the JSON shape served by the metrics endpoint.
type Snapshot struct {
	QueriesTotal  int64   `json:"queries_total"`
	QueriesFailed int64   `json:"queries_failed"`
	InFlight      int64   `json:"in_flight"`
	LatencyMean   float64 `json:"latency_mean_secs"`
	LatencyP95    float64 `json:"latency_p95_secs"`
	Samples       int     `json:"latency_samples"`
}

// Handler serves the current metrics snapshot as JSON.
func Handler(m *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latencies := m.Latencies()

		snap := Snapshot{
			QueriesTotal:  m.QueriesTotal.Value(),
			QueriesFailed: m.QueriesFailed.Value(),
			InFlight:      m.InFlight.Value(),
			LatencyMean:   stats.Mean(latencies),
			LatencyP95:    stats.Percentile(latencies, 95),
			Samples:       len(latencies),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	}
}
