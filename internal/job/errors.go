package job

import (
	"errors"
	"fmt"
)

// Kind classifies a run failure
type Kind int

const (
	KindProcessing Kind = iota
	KindSourceOpen
	KindEmptySource
	KindRemuxFinalize
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindSourceOpen:
		return "source open"
	case KindEmptySource:
		return "empty source"
	case KindRemuxFinalize:
		return "remux finalize"
	case KindCanceled:
		return "canceled"
	default:
		return "processing"
	}
}

// Error is the single terminal error value a stage returns.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "decode", "rename"
	Path string // file the operation was acting on, if any
	// TempPath is set for remux finalize failures: the combined file that
	// was left behind for manual recovery.
	TempPath string
	Err      error
}

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrProcessing    = &Error{Kind: KindProcessing}
	ErrSourceOpen    = &Error{Kind: KindSourceOpen}
	ErrEmptySource   = &Error{Kind: KindEmptySource}
	ErrRemuxFinalize = &Error{Kind: KindRemuxFinalize}
	ErrCanceled      = &Error{Kind: KindCanceled}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.TempPath != "" {
		msg += fmt.Sprintf("; combined output kept at %s", e.TempPath)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// SourceOpen reports an input that is missing or cannot be read.
func SourceOpen(path string, err error) *Error {
	return &Error{Kind: KindSourceOpen, Op: "open source", Path: path, Err: err}
}

// EmptySource reports an input with zero decodable frames.
func EmptySource(path string) *Error {
	return &Error{Kind: KindEmptySource, Op: "read first frame", Path: path,
		Err: errors.New("no decodable video frames")}
}

// RemuxFinalize reports a failure to replace target with the combined file.
func RemuxFinalize(op, target, tempPath string, err error) *Error {
	return &Error{Kind: KindRemuxFinalize, Op: op, Path: target, TempPath: tempPath, Err: err}
}

// Processing wraps any underlying decode/encode failure.
func Processing(op, path string, err error) *Error {
	return &Error{Kind: KindProcessing, Op: op, Path: path, Err: err}
}

// Canceled wraps the context error of an aborted run.
func Canceled(op string, err error) *Error {
	return &Error{Kind: KindCanceled, Op: op, Err: err}
}

// KindOf returns the Kind of err, or KindProcessing for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindProcessing
}
