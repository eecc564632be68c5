package loadtest

import (
	"fmt"
	"strconv"
	"time"

	"github.com/vulnscout/vulnscout/internal/report"
	"github.com/vulnscout/vulnscout/internal/stats"
)

// ResponseTimes holds latency statistics over successful invocations,
// in seconds. All fields are zero when there were no successes.
type ResponseTimes struct {
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Percentile95 float64 `json:"95th_percentile"`
}

// Analysis summarizes one load test run. It is recomputed from the
// result batch each run and never persisted independently of it.
type Analysis struct {
	TotalQueries      int           `json:"total_queries"`
	SuccessfulQueries int           `json:"successful_queries"`
	FailedQueries     int           `json:"failed_queries"`
	SuccessRate       float64       `json:"success_rate"`
	ResponseTimes     ResponseTimes `json:"response_times"`
}

// Analyze computes aggregate statistics over a result batch. Latency
// statistics cover successful samples only.
func Analyze(results []Result) Analysis {
	var successful []float64
	failed := 0
	for _, r := range results {
		if r.Success {
			successful = append(successful, r.TotalTime.Seconds())
		} else {
			failed++
		}
	}

	a := Analysis{
		TotalQueries:      len(results),
		SuccessfulQueries: len(successful),
		FailedQueries:     failed,
	}
	if len(results) > 0 {
		a.SuccessRate = float64(len(successful)) / float64(len(results)) * 100
	}

	a.ResponseTimes = ResponseTimes{
		Mean:         stats.Mean(successful),
		Median:       stats.Median(successful),
		StdDev:       stats.StdDev(successful),
		Min:          stats.Min(successful),
		Max:          stats.Max(successful),
		Percentile95: stats.Percentile(successful, 95),
	}

	return a
}

const (
	csvPrefix  = "load_test_results"
	jsonPrefix = "load_test_analysis"
)

var csvHeader = []string{"Query", "Total Time", "Success", "Error"}

// Save persists the raw results to a timestamped CSV and the analysis
// to a timestamped JSON file under dir. Returns both paths.
func Save(dir string, results []Result, analysis Analysis) (csvPath, jsonPath string, err error) {
	csvPath, err = report.TimestampedPath(dir, csvPrefix, "csv")
	if err != nil {
		return "", "", err
	}

	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			r.Query,
			strconv.FormatFloat(r.TotalTime.Seconds(), 'f', -1, 64),
			strconv.FormatBool(r.Success),
			r.Err,
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

// Load reads a results CSV back into memory, round-tripping a
// persisted run.
func Load(path string) ([]Result, error) {
	rows, err := report.ReadCSV(path)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			return nil, fmt.Errorf("malformed row: %v", row)
		}

		seconds, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing total time %q: %w", row[1], err)
		}
		success, err := strconv.ParseBool(row[2])
		if err != nil {
			return nil, fmt.Errorf("parsing success flag %q: %w", row[2], err)
		}

		results = append(results, Result{
			Query:     row[0],
			TotalTime: time.Duration(seconds * float64(time.Second)),
			Success:   success,
			Err:       row[3],
		})
	}
	return results, nil
}
