package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunSummary is the flattened result of one migration run.
type RunSummary struct {
	RunID        string
	Outcome      string
	Produced     int64
	Dequeued     int64
	Written      int64
	Skipped      int64
	SourceErrors int64
	MarkersSent  int64
	Duration     time.Duration
	FinishedAt   time.Time
}

// Succeeded reports whether Outcome is the successful one.
func (s RunSummary) Succeeded() bool { return s.Outcome == "succeeded" }

// WriteTextfile writes the summary as Prometheus gauges for the node
// exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string, s RunSummary) error {
	reg := prometheus.NewRegistry()

	records := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "idmigrate_last_run_records",
		Help: "Record counters of the last migration run by stage.",
	}, []string{"stage"})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "idmigrate_last_run_duration_seconds",
		Help: "Wall time of the last migration run.",
	})
	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "idmigrate_last_run_success",
		Help: "1 if the last migration run succeeded, 0 if it aborted.",
	})
	finished := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "idmigrate_last_run_timestamp_seconds",
		Help: "Unix time the last migration run finished.",
	})

	for _, c := range []prometheus.Collector{records, duration, success, finished} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("registering textfile collector: %w", err)
		}
	}

	records.WithLabelValues("produced").Set(float64(s.Produced))
	records.WithLabelValues("dequeued").Set(float64(s.Dequeued))
	records.WithLabelValues("written").Set(float64(s.Written))
	records.WithLabelValues("skipped").Set(float64(s.Skipped))
	records.WithLabelValues("source_errors").Set(float64(s.SourceErrors))
	records.WithLabelValues("markers_sent").Set(float64(s.MarkersSent))
	duration.Set(s.Duration.Seconds())
	if s.Succeeded() {
		success.Set(1)
	}
	finishedAt := s.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	finished.Set(float64(finishedAt.Unix()))

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing textfile %s: %w", path, err)
	}
	return nil
}
