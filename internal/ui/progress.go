package ui

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"frameblend/internal/job"
)

var phaseLabels = map[job.Phase]string{
	job.PhaseBlending: "Blending",
	job.PhaseRemuxing: "Adding audio",
}

var phaseUnits = map[job.Phase]string{
	job.PhaseBlending: "frames",
	job.PhaseRemuxing: "chunks",
}

// ProgressDisplay draws one bar per phase. It is not safe for concurrent
// use; feed it from a single goroutine.
type ProgressDisplay struct {
	w     io.Writer
	bar   *progressbar.ProgressBar
	last  job.Progress
}

func NewProgressDisplay(w io.Writer) *ProgressDisplay {
	return &ProgressDisplay{w: w}
}

func (d *ProgressDisplay) newBar(phase job.Phase, total int) *progressbar.ProgressBar {
	n := total
	if n <= 0 {
		n = -1 // spinner for an unknown total
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(d.w),
		progressbar.OptionSetDescription(phaseLabels[phase]),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(phaseUnits[phase]),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionThrottle(0),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(d.w) }),
	)
}

// Update moves the bar of p.Phase to p.Done, starting a new bar when the
// phase changes. Done is clamped to the bar's range because container
// frame counts can be off.
func (d *ProgressDisplay) Update(p job.Progress) {
	if d.bar == nil || p.Phase != d.last.Phase || p.Total != d.last.Total {
		d.Finish()
		d.bar = d.newBar(p.Phase, p.Total)
	}

	done := p.Done
	if done < 0 {
		done = 0
	}
	if p.Total > 0 && done > p.Total {
		done = p.Total
	}
	d.last = job.Progress{Phase: p.Phase, Done: done, Total: p.Total}
	d.bar.Set(done)
}

// Finish completes the current bar, if any.
func (d *ProgressDisplay) Finish() {
	if d.bar == nil {
		return
	}
	if !d.bar.IsFinished() {
		d.bar.Finish()
	}
	d.bar = nil
}

// Last returns the last event drawn, with Done clamped to Total.
func (d *ProgressDisplay) Last() job.Progress {
	return d.last
}
