// main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"frameblend/internal/config"
	"frameblend/internal/ffmpeg"
	"frameblend/internal/interpolation"
	"frameblend/internal/job"
	"frameblend/internal/logging"
	"frameblend/internal/metrics"
	"frameblend/internal/pipeline"
	"frameblend/internal/ui"
	"frameblend/internal/validation"
	"frameblend/internal/video"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#06B6D4")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitCanceled = 130
)

type options struct {
	input       string
	output      string
	factor      int
	audio       bool
	metricsFile string
	logLevel    string
	noInput     bool

	// set records flags given explicitly on the command line.
	set map[string]bool
}

func parseFlags(args []string, settings *config.Settings, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("frameblend", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: frameblend [flags] [input [output]]")
		fmt.Fprintln(stderr, "\nRaises a video's frame rate by cross-dissolving neighbouring frames.")
		fmt.Fprintf(stderr, "Defaults come from %s* environment variables.\n\nFlags:\n", config.EnvPrefix)
		fs.PrintDefaults()
	}

	opts := &options{set: make(map[string]bool)}
	fs.StringVar(&opts.input, "input", "", "source video file")
	fs.StringVar(&opts.output, "output", "", "destination file, or a directory to write a default name into")
	fs.IntVar(&opts.factor, "factor", settings.Factor, "blended frames inserted between each pair of originals (>= 1)")
	fs.BoolVar(&opts.audio, "audio", settings.IncludeAudio, "re-attach the source audio track")
	fs.StringVar(&opts.metricsFile, "metrics-file", settings.MetricsFile, "write run metrics in Prometheus text format to this file")
	fs.StringVar(&opts.logLevel, "log-level", settings.LogLevel, "debug, info, warn or error")
	fs.BoolVar(&opts.noInput, "no-input", false, "never prompt; fail if the input is missing")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	rest := fs.Args()
	if len(rest) > 2 {
		return nil, fmt.Errorf("too many arguments: %v", rest[2:])
	}
	if len(rest) > 0 && opts.input == "" {
		opts.input = rest[0]
		opts.set["input"] = true
	}
	if len(rest) > 1 && opts.output == "" {
		opts.output = rest[1]
		opts.set["output"] = true
	}

	if opts.factor < 1 {
		return nil, fmt.Errorf("-factor must be at least 1, got %d", opts.factor)
	}
	if opts.noInput && opts.input == "" {
		return nil, fmt.Errorf("an input video is required with -no-input")
	}
	return opts, nil
}

// runner is the part of *pipeline.Pipeline the CLI drives.
type runner interface {
	Run(ctx context.Context, cfg config.RunConfig, progress job.ProgressFunc) (*pipeline.Summary, error)
}

// execute runs the pipeline on a worker goroutine and draws its progress
// from this one.
func execute(ctx context.Context, p runner, cfg config.RunConfig, display *ui.ProgressDisplay) (*pipeline.Summary, error) {
	type outcome struct {
		summary *pipeline.Summary
		err     error
	}

	events := make(chan job.Progress, 64)
	done := make(chan outcome, 1)

	go func() {
		defer close(events)
		summary, err := p.Run(ctx, cfg, func(pr job.Progress) { events <- pr })
		done <- outcome{summary, err}
	}()

	for ev := range events {
		display.Update(ev)
	}
	display.Finish()

	o := <-done
	return o.summary, o.err
}

// describeError turns a run failure into the lines shown to the user.
func describeError(err error) []string {
	lines := []string{fmt.Sprintf("❌ %v", err)}

	var jobErr *job.Error
	if !errors.As(err, &jobErr) {
		return lines
	}
	switch jobErr.Kind {
	case job.KindCanceled:
		return []string{"⏹  Cancelled. The output file is incomplete and should be discarded."}
	case job.KindSourceOpen:
		lines = append(lines, "Check that the file exists and is a video ffmpeg can read.")
	case job.KindEmptySource:
		lines = append(lines, "The source has no decodable video frames; the output was not touched.")
	case job.KindRemuxFinalize:
		lines = append(lines,
			"The video with audio was written but could not replace the silent output.",
			fmt.Sprintf("Recover it manually: mv %q %q", jobErr.TempPath, jobErr.Path))
	default:
		lines = append(lines, "The output file is incomplete and should be discarded.")
	}
	return lines
}

// stopPoint describes how far a failed run got, or "" when nothing was
// reported or the total was unknown.
func stopPoint(last job.Progress) string {
	if last.Total <= 0 {
		return ""
	}
	return fmt.Sprintf("Stopped while %s at %.0f%% (%d/%d).", last.Phase, last.Percent(), last.Done, last.Total)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, job.ErrCanceled):
		return exitCanceled
	default:
		return exitFailure
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, titleStyle.Render("🎬 FrameBlend"))

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render(fmt.Sprintf("❌ Invalid configuration: %v", err)))
		return exitUsage
	}

	opts, err := parseFlags(args, settings, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, errorStyle.Render(fmt.Sprintf("❌ %v", err)))
		return exitUsage
	}

	logger, err := logging.NewLogger(opts.logLevel)
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render(fmt.Sprintf("❌ %v", err)))
		return exitUsage
	}
	defer logger.Sync()

	if !ffmpeg.IsFFmpegAvailable() || !ffmpeg.IsFFprobeAvailable() {
		fmt.Fprintln(stderr, errorStyle.Render("❌ FFmpeg is not installed or not in PATH"))
		fmt.Fprintln(stderr, "Please install FFmpeg (ffmpeg and ffprobe) and try again.")
		return exitFailure
	}

	interactive := !opts.noInput && !opts.set["input"]

	var inputPath string
	if opts.input == "" {
		inputPath, err = promptInputPath()
	} else {
		inputPath, err = validation.ValidateInputPath(opts.input)
	}
	if err != nil {
		return reportSetupError(stderr, err)
	}

	info, err := video.GetVideoInfo(inputPath)
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render(fmt.Sprintf("❌ Error reading video: %v", err)))
		return exitFailure
	}

	if interactive && !opts.set["factor"] {
		if opts.factor, err = promptFactor(opts.factor); err != nil {
			return reportSetupError(stderr, err)
		}
	}

	ui.DisplayVideoInfo(stdout, info, opts.factor)
	for _, w := range validation.StreamWarnings(info, opts.factor) {
		fmt.Fprintln(stdout, warnStyle.Render("⚠️  "+w))
	}

	if interactive && !opts.set["audio"] && info.HasAudio {
		if opts.audio, err = promptAudio(opts.audio); err != nil {
			return reportSetupError(stderr, err)
		}
	}

	outputArg := opts.output
	if outputArg == "" {
		defaultOutput := filepath.Join(filepath.Dir(inputPath), validation.DefaultOutputName(inputPath, opts.factor))
		if opts.noInput {
			outputArg = defaultOutput
		} else if outputArg, err = promptOutputPath(inputPath, defaultOutput, opts.factor); err != nil {
			return reportSetupError(stderr, err)
		}
	}
	outputPath, err := validation.ValidateOutputPath(outputArg, inputPath, opts.factor)
	if err != nil {
		return reportSetupError(stderr, err)
	}

	if leftovers, err := ffmpeg.FindLeftovers(outputPath); err == nil {
		for _, l := range leftovers {
			fmt.Fprintln(stdout, warnStyle.Render("⚠️  Leftover from an earlier failed run: "+l))
		}
	}

	m := metrics.New()
	media := ffmpeg.NewMedia(settings.BlendCodec, settings.BlendQuality)
	remuxer := ffmpeg.NewRemuxer(ffmpeg.RemuxConfig{
		VideoCodec:   settings.RemuxVideoCodec,
		AudioCodec:   settings.RemuxAudioCodec,
		AudioTail:    settings.AudioTail,
		ChunkSamples: settings.AudioChunkSamples,
	}, ffmpeg.CommandExecutor{}, logger)
	p := pipeline.New(interpolation.NewInterpolator(media, logger), remuxer, m, logger)
	p.OnStateChange = func(from, to job.State) {
		if to.Terminal() {
			logger.Info("run ended", zap.Stringer("from", from), zap.Stringer("to", to))
			return
		}
		logger.Debug("state change", zap.Stringer("from", from), zap.Stringer("to", to))
	}

	cfg := config.RunConfig{
		InputPath:    inputPath,
		OutputPath:   outputPath,
		Factor:       opts.factor,
		IncludeAudio: opts.audio,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(stdout, promptStyle.Render(fmt.Sprintf("🔄 Inserting %d blended frame(s) between each pair...", cfg.Factor)))
	display := ui.NewProgressDisplay(stdout)
	summary, runErr := execute(ctx, p, cfg, display)

	if opts.metricsFile != "" {
		if err := m.WriteTextfile(opts.metricsFile); err != nil {
			logger.Warn("failed to write metrics file", zap.String("path", opts.metricsFile), zap.Error(err))
		}
	}

	if runErr != nil {
		for _, line := range describeError(runErr) {
			fmt.Fprintln(stderr, errorStyle.Render(line))
		}
		if where := stopPoint(display.Last()); where != "" {
			fmt.Fprintln(stderr, warnStyle.Render(where))
		}
		return exitCode(runErr)
	}

	fmt.Fprintln(stdout, successStyle.Render("✅ Done!"))
	fmt.Fprintln(stdout, ui.RenderSummary(summary))
	return exitOK
}

func reportSetupError(stderr io.Writer, err error) int {
	if isPromptAbort(err) {
		fmt.Fprintln(stderr, "Aborted.")
		return exitCanceled
	}
	fmt.Fprintln(stderr, errorStyle.Render(fmt.Sprintf("❌ %v", err)))
	return exitFailure
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
