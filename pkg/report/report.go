// Package report persists aggregate results as CSV, JSON and Prometheus
// text exposition.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/ja7ad/energybench/pkg/aggregate"
)

// Row is the flat, serialized form of an aggregate.Result.
type Row struct {
	Benchmark      string    `csv:"benchmark" json:"benchmark"`
	Language       string    `csv:"language" json:"language"`
	Params         string    `csv:"params" json:"params"`
	Iterations     int       `csv:"iterations" json:"iterations"`
	AvgDuration    float64   `csv:"avg_duration" json:"avg_duration"`
	AvgPkgEnergy   float64   `csv:"avg_pkg_energy" json:"avg_pkg_energy"`
	AvgDRAMEnergy  float64   `csv:"avg_dram_energy" json:"avg_dram_energy"`
	AvgTotalEnergy float64   `csv:"avg_total_energy" json:"avg_total_energy"`
	StdDuration    float64   `csv:"std_duration" json:"std_duration"`
	StdTotalEnergy float64   `csv:"std_total_energy" json:"std_total_energy"`
	Timestamp      time.Time `csv:"timestamp" json:"timestamp"`
	RunID          string    `csv:"run_id" json:"run_id"`
	AvgCPUTime     float64   `csv:"avg_cpu_time" json:"avg_cpu_time"`
	AvgPeakRSS     float64   `csv:"avg_peak_rss" json:"avg_peak_rss"`
}

// Rows flattens results in order.
func Rows(results []*aggregate.Result) []Row {
	out := make([]Row, 0, len(results))
	for _, r := range results {
		out = append(out, Row{
			Benchmark:      r.Benchmark,
			Language:       r.Language,
			Params:         r.Params,
			Iterations:     r.Iterations,
			AvgDuration:    r.MeanDuration,
			AvgPkgEnergy:   r.MeanPkgEnergy,
			AvgDRAMEnergy:  r.MeanDRAMEnergy,
			AvgTotalEnergy: r.MeanTotalEnergy,
			StdDuration:    r.StdDuration,
			StdTotalEnergy: r.StdTotalEnergy,
			Timestamp:      r.Timestamp,
			RunID:          r.RunID,
			AvgCPUTime:     r.MeanCPUTime,
			AvgPeakRSS:     r.MeanPeakRSS,
		})
	}
	return out
}

// WriteCSV writes a header and one line per result.
func WriteCSV(w io.Writer, results []*aggregate.Result) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(Row{}); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for _, row := range Rows(results) {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("csv row %s/%s: %w", row.Benchmark, row.Language, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV decodes rows previously written by WriteCSV.
func ReadCSV(r io.Reader) ([]Row, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	var rows []Row
	for {
		var row Row
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteJSON writes the results as an indented JSON array.
func WriteJSON(w io.Writer, results []*aggregate.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Rows(results))
}

// Paths are the files written by Save.
type Paths struct {
	CSV  string
	JSON string
}

// Save writes benchmark_results_<stamp>.csv and .json under dir,
// creating it if needed.
func Save(dir string, results []*aggregate.Result, now time.Time) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create output dir: %w", err)
	}
	stamp := now.Format("20060102_150405")
	p := Paths{
		CSV:  filepath.Join(dir, "benchmark_results_"+stamp+".csv"),
		JSON: filepath.Join(dir, "benchmark_results_"+stamp+".json"),
	}
	if err := writeFile(p.CSV, func(w io.Writer) error { return WriteCSV(w, results) }); err != nil {
		return Paths{}, err
	}
	if err := writeFile(p.JSON, func(w io.Writer) error { return WriteJSON(w, results) }); err != nil {
		return Paths{}, err
	}
	return p, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
