package report

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ja7ad/energybench/pkg/aggregate"
)

const namespace = "energybench"

var labels = []string{"benchmark", "language", "params"}

// Registry builds a Prometheus registry holding one gauge series per
// result and statistic.
func Registry(results []*aggregate.Result) *prometheus.Registry {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	}
	var (
		iterations  = gauge("iterations", "Number of measured runs in the aggregate.")
		durMean     = gauge("duration_seconds_mean", "Mean wall-clock duration of a run.")
		durStd      = gauge("duration_seconds_stddev", "Population standard deviation of run duration.")
		pkgMean     = gauge("package_energy_joules_mean", "Mean RAPL package energy per run.")
		dramMean    = gauge("dram_energy_joules_mean", "Mean RAPL DRAM energy per run.")
		totalMean   = gauge("energy_joules_mean", "Mean package+DRAM energy per run.")
		totalStd    = gauge("energy_joules_stddev", "Population standard deviation of package+DRAM energy.")
		cpuMean     = gauge("cpu_seconds_mean", "Mean user+system CPU time per run.")
		rssMean     = gauge("peak_rss_bytes_mean", "Mean of the per-run peak resident memory of the process tree.")
		lastRunTime = gauge("timestamp_seconds", "Unix time the aggregate was produced.")
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(iterations, durMean, durStd, pkgMean, dramMean, totalMean, totalStd, cpuMean, rssMean, lastRunTime)

	for _, r := range results {
		lv := []string{r.Benchmark, r.Language, r.Params}
		iterations.WithLabelValues(lv...).Set(float64(r.Iterations))
		durMean.WithLabelValues(lv...).Set(r.MeanDuration)
		durStd.WithLabelValues(lv...).Set(r.StdDuration)
		pkgMean.WithLabelValues(lv...).Set(r.MeanPkgEnergy)
		dramMean.WithLabelValues(lv...).Set(r.MeanDRAMEnergy)
		totalMean.WithLabelValues(lv...).Set(r.MeanTotalEnergy)
		totalStd.WithLabelValues(lv...).Set(r.StdTotalEnergy)
		cpuMean.WithLabelValues(lv...).Set(r.MeanCPUTime)
		rssMean.WithLabelValues(lv...).Set(r.MeanPeakRSS)
		lastRunTime.WithLabelValues(lv...).Set(float64(r.Timestamp.UnixNano()) / 1e9)
	}
	return reg
}

// WriteTextfile writes the results in Prometheus text format for the
// node_exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string, results []*aggregate.Result) error {
	return prometheus.WriteToTextfile(path, Registry(results))
}
