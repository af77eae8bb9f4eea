package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"frameblend/internal/job"
	"frameblend/internal/video"
)

// Audio tail policies for a source whose audio is shorter than the video.
const (
	// AudioTailClamp cuts the output at the video duration and never
	// extends the audio; the tail of the video plays silent.
	AudioTailClamp = "clamp"
	// AudioTailPad fills the tail with generated silence.
	AudioTailPad = "pad"
)

// defaultSampleRate is assumed when the source does not report one.
const defaultSampleRate = 44100

type RemuxConfig struct {
	VideoCodec   string
	AudioCodec   string
	AudioTail    string
	ChunkSamples int // audio samples per progress unit
}

func DefaultRemuxConfig() RemuxConfig {
	return RemuxConfig{
		VideoCodec:   "libx264",
		AudioCodec:   "aac",
		AudioTail:    AudioTailClamp,
		ChunkSamples: 2000,
	}
}

// FileSystem is the part of the os package the finalize step uses.
type FileSystem interface {
	Remove(name string) error
	Rename(oldpath, newpath string) error
}

type osFS struct{}

func (osFS) Remove(name string) error             { return os.Remove(name) }
func (osFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

// RemuxResult describes a finished AddAudio call.
type RemuxResult struct {
	AudioAdded bool
	Duration   float64 // seconds of the silent video, the audio cut-off
	Chunks     int
	Elapsed    time.Duration
}

// Remuxer re-attaches the original audio track to a blended video.
type Remuxer struct {
	cfg    RemuxConfig
	exec   Executor
	probe  ProbeFunc
	fs     FileSystem
	newID  func() string
	logger *zap.Logger
}

type Option func(*Remuxer)

func WithProbe(probe ProbeFunc) Option {
	return func(r *Remuxer) { r.probe = probe }
}

func WithFileSystem(fs FileSystem) Option {
	return func(r *Remuxer) { r.fs = fs }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Remuxer) { r.newID = newID }
}

func NewRemuxer(cfg RemuxConfig, exec Executor, logger *zap.Logger, opts ...Option) *Remuxer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChunkSamples <= 0 {
		cfg.ChunkSamples = DefaultRemuxConfig().ChunkSamples
	}
	r := &Remuxer{
		cfg:    cfg,
		exec:   exec,
		probe:  video.GetVideoInfo,
		fs:     osFS{},
		newID:  uuid.NewString,
		logger: logger.Named("remuxer"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BuildArgs returns the ffmpeg arguments that combine the first video
// stream of videoPath with the first audio stream of originalPath into
// tempPath, cut at duration seconds.
func (r *Remuxer) BuildArgs(videoPath, originalPath, tempPath string, duration float64) []string {
	silent := ffmpeggo.Input(videoPath, ffmpeggo.KwArgs{"loglevel": "error"})
	original := ffmpeggo.Input(originalPath)

	kwargs := ffmpeggo.KwArgs{
		"c:v":      r.cfg.VideoCodec,
		"c:a":      r.cfg.AudioCodec,
		"t":        strconv.FormatFloat(duration, 'f', 6, 64),
		"progress": "pipe:1",
		"nostats":  "",
	}
	if r.cfg.AudioTail == AudioTailPad {
		kwargs["af"] = "apad"
	}

	return ffmpeggo.Output(
		[]*ffmpeggo.Stream{silent.Get("v:0"), original.Get("a:0")},
		tempPath, kwargs,
	).
		OverWriteOutput().
		GetArgs()
}

// AddAudio replaces videoPath with a copy that carries the audio of
// originalPath. A source without audio leaves videoPath untouched.
//
// The combined file is written to a temporary sibling first. If the
// final delete or rename fails the error is job.ErrRemuxFinalize and the
// temporary file is left in place.
func (r *Remuxer) AddAudio(ctx context.Context, originalPath, videoPath string, progress job.ProgressFunc) (*RemuxResult, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, job.Canceled("remux", err)
	}

	silent, err := r.probe(videoPath)
	if err != nil {
		return nil, job.Processing("probe video", videoPath, err)
	}
	source, err := r.probe(originalPath)
	if err != nil {
		return nil, job.Processing("probe source", originalPath, err)
	}

	log := r.logger.With(zap.String("source", originalPath), zap.String("video", videoPath))
	if !source.HasAudio {
		log.Debug("source has no audio, leaving video unchanged")
		return &RemuxResult{Elapsed: time.Since(start)}, nil
	}

	duration := silent.Duration
	if duration <= 0 && silent.FPS() > 0 {
		duration = float64(silent.FrameCount) / silent.FPS()
	}
	if duration <= 0 {
		return nil, job.Processing("probe video", videoPath, fmt.Errorf("unknown duration"))
	}

	sampleRate := source.AudioSampleRate
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	counter := newChunkCounter(duration, r.cfg.ChunkSamples, sampleRate, func(done, total int) {
		progress.Report(job.PhaseRemuxing, done, total)
	})

	tempPath := TempPath(videoPath, r.newID())
	args := r.BuildArgs(videoPath, originalPath, tempPath, duration)

	log.Debug("remuxing",
		zap.String("temp", tempPath),
		zap.Float64("duration", duration),
		zap.String("audio_tail", r.cfg.AudioTail),
		zap.Int("chunks", counter.total),
	)

	if err := r.exec.Run(ctx, "ffmpeg", args, &progressWriter{onTime: counter.at}); err != nil {
		if rmErr := r.fs.Remove(tempPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn("failed to remove partial remux output", zap.String("temp", tempPath), zap.Error(rmErr))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, job.Canceled("remux", ctxErr)
		}
		return nil, job.Processing("remux", videoPath, err)
	}
	counter.finish()

	if err := r.fs.Remove(videoPath); err != nil && !os.IsNotExist(err) {
		return nil, job.RemuxFinalize("remove silent video", videoPath, tempPath, err)
	}
	if err := r.fs.Rename(tempPath, videoPath); err != nil {
		return nil, job.RemuxFinalize("rename combined video", videoPath, tempPath, err)
	}

	result := &RemuxResult{
		AudioAdded: true,
		Duration:   duration,
		Chunks:     counter.total,
		Elapsed:    time.Since(start),
	}
	log.Debug("remux complete", zap.Duration("elapsed", result.Elapsed))
	return result, nil
}
