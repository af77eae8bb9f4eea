package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters of one process. Each instance has its own
// registry so tests and repeated runs do not collide.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	FramesRead    prometheus.Counter
	FramesWritten prometheus.Counter
	AudioChunks   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "frameblend_runs_total",
			Help: "Total number of runs, by result",
		}, []string{"result"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frameblend_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
		FramesRead: f.NewCounter(prometheus.CounterOpts{
			Name: "frameblend_frames_read_total",
			Help: "Total number of source frames decoded",
		}),
		FramesWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "frameblend_frames_written_total",
			Help: "Total number of frames encoded, originals and blends",
		}),
		AudioChunks: f.NewCounter(prometheus.CounterOpts{
			Name: "frameblend_audio_chunks_total",
			Help: "Total number of audio chunks re-muxed",
		}),
	}
}

// WriteTextfile writes the current values in the text exposition format,
// for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
