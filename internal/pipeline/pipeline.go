package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"frameblend/internal/config"
	"frameblend/internal/ffmpeg"
	"frameblend/internal/interpolation"
	"frameblend/internal/job"
	"frameblend/internal/logging"
	"frameblend/internal/metrics"
)

// Blender produces the silent, higher frame rate video.
type Blender interface {
	InterpolateVideo(ctx context.Context, inputPath, outputPath string, factor int, progress job.ProgressFunc) (*interpolation.InterpolationResult, error)
}

// AudioMuxer re-attaches the source audio to the blended video in place.
type AudioMuxer interface {
	AddAudio(ctx context.Context, originalPath, videoPath string, progress job.ProgressFunc) (*ffmpeg.RemuxResult, error)
}

// Summary describes a finished run.
type Summary struct {
	RunID   string
	Config  config.RunConfig
	Blend   *interpolation.InterpolationResult
	Remux   *ffmpeg.RemuxResult // nil when audio was not requested
	Elapsed time.Duration
}

// Pipeline runs the blend stage and then, optionally, the remux stage.
// The two stages never overlap. A Pipeline runs one job at a time.
type Pipeline struct {
	blender Blender
	muxer   AudioMuxer
	metrics *metrics.Metrics
	logger  *zap.Logger

	// OnStateChange, if set, is called on the running goroutine after
	// every transition.
	OnStateChange func(from, to job.State)

	runMu sync.Mutex
	mu    sync.Mutex
	state job.State
}

// New creates a pipeline. m and logger may be nil.
func New(blender Blender, muxer AudioMuxer, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		blender: blender,
		muxer:   muxer,
		metrics: m,
		logger:  logging.WithComponent(logger, "pipeline"),
	}
}

func (p *Pipeline) transition(to job.State) {
	p.mu.Lock()
	from := p.state
	p.state = to
	p.mu.Unlock()

	if p.OnStateChange != nil {
		p.OnStateChange(from, to)
	}
}

// Run executes one job. Any stage failure ends the run in job.StateFailed and
// is returned as a *job.Error; a cancelled ctx yields job.ErrCanceled.
func (p *Pipeline) Run(ctx context.Context, cfg config.RunConfig, progress job.ProgressFunc) (*Summary, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	start := time.Now()
	summary := &Summary{RunID: uuid.NewString(), Config: cfg}
	log := logging.WithRunID(p.logger, summary.RunID)

	p.mu.Lock()
	p.state = job.StateIdle
	p.mu.Unlock()

	fail := func(err error) (*Summary, error) {
		p.transition(job.StateFailed)
		p.countRun(err)
		log.Info("run failed", zap.Error(err), zap.Stringer("kind", job.KindOf(err)))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return fail(job.Processing("validate run", cfg.InputPath, err))
	}
	if cfg.IncludeAudio && p.muxer == nil {
		return fail(job.Processing("validate run", cfg.InputPath, errors.New("audio requested but no muxer configured")))
	}

	log.Info("run started",
		zap.String("input", cfg.InputPath),
		zap.String("output", cfg.OutputPath),
		zap.Int("factor", cfg.Factor),
		zap.Bool("include_audio", cfg.IncludeAudio),
	)

	p.transition(job.StateBlending)
	stageStart := time.Now()
	blend, err := p.blender.InterpolateVideo(ctx, cfg.InputPath, cfg.OutputPath, cfg.Factor, progress)
	p.observeStage("blend", stageStart)
	if err != nil {
		return fail(err)
	}
	summary.Blend = blend
	if p.metrics != nil {
		p.metrics.FramesRead.Add(float64(blend.OriginalFrameCount))
		p.metrics.FramesWritten.Add(float64(blend.InterpolatedFrameCount))
	}
	log.Info("blend finished",
		zap.Int("frames_read", blend.OriginalFrameCount),
		zap.Int("frames_written", blend.InterpolatedFrameCount),
		zap.String("fps", blend.InterpolatedFPS.RatString()),
	)

	if cfg.IncludeAudio {
		p.transition(job.StateRemuxing)
		stageStart = time.Now()
		remux, err := p.muxer.AddAudio(ctx, cfg.InputPath, cfg.OutputPath, progress)
		p.observeStage("remux", stageStart)
		if err != nil {
			return fail(err)
		}
		summary.Remux = remux
		if p.metrics != nil {
			p.metrics.AudioChunks.Add(float64(remux.Chunks))
		}
		log.Info("remux finished", zap.Bool("audio_added", remux.AudioAdded))
	}

	p.transition(job.StateDone)
	p.countRun(nil)
	summary.Elapsed = time.Since(start)
	log.Info("run finished", zap.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	if p.metrics == nil {
		return
	}
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (p *Pipeline) countRun(err error) {
	if p.metrics == nil {
		return
	}
	p.metrics.RunsTotal.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, job.ErrCanceled):
		return "canceled"
	default:
		return "failed_" + strings.ReplaceAll(job.KindOf(err).String(), " ", "_")
	}
}
