// internal/ui/ui.go
package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"frameblend/internal/interpolation"
	"frameblend/internal/pipeline"
	"frameblend/internal/video"
)

var (
	infoStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	summaryStyle = infoStyle.Copy().
			BorderForeground(lipgloss.Color("#10B981"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#111827"))
)

type row struct {
	label string
	value string
}

func renderRows(rows []row) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = labelStyle.Render(r.label) + " " + valueStyle.Render(r.value)
	}
	return strings.Join(lines, "\n")
}

// RenderVideoInfo renders the source panel, including the rate the output
// will have with factor.
func RenderVideoInfo(info *video.VideoInfo, factor int) string {
	rows := []row{
		{"📁 File:", filepath.Base(info.Filepath)},
		{"📊 Size:", FormatFileSize(info.FileSize)},
		{"📐 Dimensions:", formatDimensions(info)},
		{"🎬 Format:", info.Format},
		{"⚡ Bitrate:", formatBitrate(info.Bitrate)},
		{"⏱️  Duration:", FormatDuration(info.Duration)},
		{"🎞️  Frames:", formatFrameChange(info.FrameCount, factor)},
		{"🔁 Frame rate:", fmt.Sprintf("%s → %s", FormatFrameRate(info.FPS()),
			FormatFrameRate(info.FPS()*float64(factor+1)))},
		{"🔊 Audio:", formatAudio(info)},
	}
	return infoStyle.Render(renderRows(rows))
}

func DisplayVideoInfo(w io.Writer, info *video.VideoInfo, factor int) {
	fmt.Fprintln(w, RenderVideoInfo(info, factor))
}

// RenderSummary renders the panel shown after a successful run.
func RenderSummary(s *pipeline.Summary) string {
	rows := []row{
		{"📁 Output:", s.Config.OutputPath},
	}
	if b := s.Blend; b != nil {
		rows = append(rows,
			row{"🎞️  Frames:", fmt.Sprintf("%s read, %s written",
				humanize.Comma(int64(b.OriginalFrameCount)), humanize.Comma(int64(b.InterpolatedFrameCount)))},
			row{"🔁 Frame rate:", formatRateChange(b)},
		)
	}
	switch {
	case s.Remux == nil:
		rows = append(rows, row{"🔊 Audio:", "not requested"})
	case !s.Remux.AudioAdded:
		rows = append(rows, row{"🔊 Audio:", "source has no audio"})
	default:
		rows = append(rows, row{"🔊 Audio:", fmt.Sprintf("added (%s)", FormatDuration(s.Remux.Duration))})
	}
	rows = append(rows, row{"⏱️  Took:", s.Elapsed.Round(time.Millisecond).String()})
	return summaryStyle.Render(renderRows(rows))
}

func formatRateChange(b *interpolation.InterpolationResult) string {
	if b.OriginalFPS == nil || b.InterpolatedFPS == nil {
		return "Unknown"
	}
	in, _ := b.OriginalFPS.Float64()
	out, _ := b.InterpolatedFPS.Float64()
	return fmt.Sprintf("%s → %s (%s)", FormatFrameRate(in), FormatFrameRate(out), b.InterpolatedFPS.RatString())
}

// FormatFileSize converts bytes to human-readable format
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatDuration converts seconds to MM:SS, or H:MM:SS past an hour
func FormatDuration(seconds float64) string {
	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	remainingSeconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, remainingSeconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, remainingSeconds)
}

// FormatFrameRate renders fps with at most two decimals
func FormatFrameRate(fps float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", fps), "0"), ".")
	return s + " fps"
}

func formatFrameChange(n, factor int) string {
	if n <= 0 {
		return "Unknown"
	}
	out := interpolation.OutputFrameCount(n, factor)
	return fmt.Sprintf("%s → %s", humanize.Comma(int64(n)), humanize.Comma(int64(out)))
}

func formatDimensions(info *video.VideoInfo) string {
	dims := fmt.Sprintf("%dx%d", info.Width, info.Height)
	if info.Rotation != 0 {
		dims += fmt.Sprintf(" (rotated %d°)", info.Rotation)
	}
	return dims
}

func formatAudio(info *video.VideoInfo) string {
	if !info.HasAudio {
		return "none"
	}
	if info.AudioSampleRate > 0 {
		return fmt.Sprintf("%s, %s Hz", info.AudioCodec, humanize.Comma(int64(info.AudioSampleRate)))
	}
	return info.AudioCodec
}

func formatBitrate(bitrate int64) string {
	if bitrate == 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%.1f kbps", float64(bitrate)/1000)
}
