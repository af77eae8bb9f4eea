// internal/interpolation/interpolation.go
package interpolation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"go.uber.org/zap"

	"frameblend/internal/job"
	"frameblend/internal/video"
)

// Media opens the decode and encode ends of a blend.
type Media interface {
	// OpenReader starts decoding path and returns its stream metadata.
	OpenReader(ctx context.Context, path string) (video.FrameReader, *video.VideoInfo, error)
	// CreateWriter creates (or truncates) path for frames of the given format.
	CreateWriter(ctx context.Context, path string, format video.Format) (video.FrameWriter, error)
}

// InterpolationResult contains the results of frame interpolation
type InterpolationResult struct {
	InputPath              string
	OutputPath             string
	Factor                 int
	OriginalFPS            *big.Rat
	InterpolatedFPS        *big.Rat
	ReportedFrameCount     int // as reported by the container, may be inaccurate
	OriginalFrameCount     int // frames actually decoded
	InterpolatedFrameCount int // frames written
	ProcessingTime         time.Duration
}

// Interpolator synthesizes intermediate frames by linear cross-dissolve
type Interpolator struct {
	media  Media
	logger *zap.Logger
}

// NewInterpolator creates a new interpolator instance
func NewInterpolator(media Media, logger *zap.Logger) *Interpolator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpolator{media: media, logger: logger.Named("blender")}
}

// InterpolateVideo reads inputPath sequentially and writes every original
// frame followed by factor blended frames to outputPath at factor+1 times
// the source rate. Progress is reported once per consumed input frame.
//
// The first frame is decoded before outputPath is created, so a source
// without frames fails with job.ErrEmptySource and leaves outputPath as
// it was.
func (i *Interpolator) InterpolateVideo(ctx context.Context, inputPath, outputPath string, factor int, progress job.ProgressFunc) (*InterpolationResult, error) {
	start := time.Now()

	if factor < 0 {
		return nil, job.Processing("validate factor", "", fmt.Errorf("interpolation factor must be >= 0, got %d", factor))
	}

	if err := ctx.Err(); err != nil {
		return nil, job.Canceled("blend", err)
	}

	reader, info, err := i.media.OpenReader(ctx, inputPath)
	if err != nil {
		return nil, job.SourceOpen(inputPath, err)
	}
	defer reader.Close()

	format := info.FrameFormat()
	if format.FrameRate == nil || format.FrameSize() <= 0 {
		return nil, job.SourceOpen(inputPath, fmt.Errorf("unusable stream format %s", format.Size()))
	}
	outFormat := video.Format{
		Width:     format.Width,
		Height:    format.Height,
		FrameRate: OutputFrameRate(format.FrameRate, factor),
	}

	result := &InterpolationResult{
		InputPath:          inputPath,
		OutputPath:         outputPath,
		Factor:             factor,
		OriginalFPS:        format.FrameRate,
		InterpolatedFPS:    outFormat.FrameRate,
		ReportedFrameCount: info.FrameCount,
	}

	log := i.logger.With(zap.String("input", inputPath), zap.String("output", outputPath))
	log.Debug("starting blend",
		zap.Int("factor", factor),
		zap.String("input_fps", format.FrameRate.RatString()),
		zap.String("output_fps", outFormat.FrameRate.RatString()),
		zap.Int("reported_frames", info.FrameCount),
	)

	// A killed ffmpeg surfaces as a read or write error; report it as the
	// cancellation that caused it.
	processing := func(op, path string, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return job.Canceled(op, cerr)
		}
		return job.Processing(op, path, err)
	}

	size := format.FrameSize()
	prev := make([]byte, size)
	next := make([]byte, size)
	mixed := make([]byte, size)

	if err := reader.ReadFrame(prev); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, job.EmptySource(inputPath)
		}
		return nil, processing("decode", inputPath, err)
	}
	result.OriginalFrameCount = 1
	progress.Report(job.PhaseBlending, result.OriginalFrameCount, info.FrameCount)

	writer, err := i.media.CreateWriter(ctx, outputPath, outFormat)
	if err != nil {
		return nil, processing("create output", outputPath, err)
	}

	write := func(frame []byte) error {
		if err := writer.WriteFrame(frame); err != nil {
			return processing("encode", outputPath, err)
		}
		result.InterpolatedFrameCount++
		return nil
	}

	fail := func(err error) (*InterpolationResult, error) {
		writer.Close()
		log.Debug("blend aborted", zap.Error(err), zap.Int("frames_read", result.OriginalFrameCount))
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return fail(job.Canceled("blend", err))
		}

		err := reader.ReadFrame(next)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(processing("decode", inputPath, err))
		}

		if err := write(prev); err != nil {
			return fail(err)
		}
		for step := 1; step <= factor; step++ {
			Mix(mixed, prev, next, step, factor+1)
			if err := write(mixed); err != nil {
				return fail(err)
			}
		}

		prev, next = next, prev
		result.OriginalFrameCount++
		progress.Report(job.PhaseBlending, result.OriginalFrameCount, info.FrameCount)
	}

	// The last original has no successor to blend toward but must still
	// appear in the output.
	if err := write(prev); err != nil {
		return fail(err)
	}

	if err := writer.Close(); err != nil {
		return nil, processing("finish output", outputPath, err)
	}

	result.ProcessingTime = time.Since(start)
	log.Debug("blend complete",
		zap.Int("frames_read", result.OriginalFrameCount),
		zap.Int("frames_written", result.InterpolatedFrameCount),
		zap.Duration("elapsed", result.ProcessingTime),
	)

	return result, nil
}
