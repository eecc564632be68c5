package evaluation

import (
	"strconv"

	"github.com/vulnscout/vulnscout/internal/report"
	"github.com/vulnscout/vulnscout/internal/stats"
)

// TotalStats summarizes total invocation time, in seconds.
type TotalStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// StageMeans holds the mean latency per pipeline stage, in seconds.
type StageMeans struct {
	Translate float64 `json:"translate"`
	Search    float64 `json:"search"`
	Advise    float64 `json:"advise"`
}

// Analysis summarizes one evaluation run.
type Analysis struct {
	Samples int        `json:"samples"`
	Total   TotalStats `json:"total"`
	Stages  StageMeans `json:"components"`
}

// Analyze computes summary statistics over a sample batch.
func Analyze(samples []TimingSample) Analysis {
	totals := make([]float64, len(samples))
	translates := make([]float64, len(samples))
	searches := make([]float64, len(samples))
	advises := make([]float64, len(samples))
	for i, s := range samples {
		totals[i] = s.Total.Seconds()
		translates[i] = s.Translate.Seconds()
		searches[i] = s.Search.Seconds()
		advises[i] = s.Advise.Seconds()
	}

	return Analysis{
		Samples: len(samples),
		Total: TotalStats{
			Mean:   stats.Mean(totals),
			Median: stats.Median(totals),
			StdDev: stats.StdDev(totals),
			Min:    stats.Min(totals),
			Max:    stats.Max(totals),
		},
		Stages: StageMeans{
			Translate: stats.Mean(translates),
			Search:    stats.Mean(searches),
			Advise:    stats.Mean(advises),
		},
	}
}

const (
	csvPrefix  = "timing_results"
	jsonPrefix = "analysis"
)

var csvHeader = []string{"Total Time", "Translate Time", "Search Time", "Advise Time"}

// Save persists the raw samples to a timestamped CSV and the analysis
// to a timestamped JSON file under dir. Returns both paths.
func Save(dir string, samples []TimingSample, analysis Analysis) (csvPath, jsonPath string, err error) {
	csvPath, err = report.TimestampedPath(dir, csvPrefix, "csv")
	if err != nil {
		return "", "", err
	}

	rows := make([][]string, len(samples))
	for i, s := range samples {
		rows[i] = []string{
			formatSeconds(s.Total.Seconds()),
			formatSeconds(s.Translate.Seconds()),
			formatSeconds(s.Search.Seconds()),
			formatSeconds(s.Advise.Seconds()),
		}
	}
	if err := report.WriteCSV(csvPath, csvHeader, rows); err != nil {
		return "", "", err
	}

	jsonPath, err = report.TimestampedPath(dir, jsonPrefix, "json")
	if err != nil {
		return "", "", err
	}
	if err := report.WriteJSON(jsonPath, analysis); err != nil {
		return "", "", err
	}

	return csvPath, jsonPath, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
