// Package job holds the vocabulary shared by every stage of a frame-rate
// conversion run: phases, progress events, run states and errors.
package job

// Phase identifies which stage of a run produced a progress event
type Phase string

const (
	PhaseBlending Phase = "blending"
	PhaseRemuxing Phase = "remuxing"
)

// Progress is a single progress event. Units are input frames for the
// blending phase and audio chunks for the remuxing phase.
type Progress struct {
	Phase Phase
	Done  int
	Total int
}

// Percent returns the completion percentage clamped to [0, 100].
// An unknown total (<= 0) reports 0.
func (p Progress) Percent() float64 {
	if p.Total <= 0 || p.Done <= 0 {
		return 0
	}
	pct := float64(p.Done) / float64(p.Total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// ProgressFunc receives progress events synchronously on the goroutine
// doing the work. Implementations that touch a UI must hand the event
// off to their own goroutine.
type ProgressFunc func(Progress)

// Report invokes f if it is non-nil.
func (f ProgressFunc) Report(phase Phase, done, total int) {
	if f == nil {
		return
	}
	f(Progress{Phase: phase, Done: done, Total: total})
}

// State is the lifecycle state of a run
type State int

const (
	StateIdle State = iota
	StateBlending
	StateRemuxing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBlending:
		return "blending"
	case StateRemuxing:
		return "remuxing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
