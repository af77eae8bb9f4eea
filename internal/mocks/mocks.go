// Package mocks provides mock implementations for testing
package mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"frameblend/internal/video"
)

// FakeFrameReader serves frames from memory
type FakeFrameReader struct {
	Frames [][]byte
	// FailAt makes the read of frame index FailAt return Err instead.
	// Negative disables.
	FailAt int
	Err    error

	next   int
	Closed bool
}

func NewFakeFrameReader(frames [][]byte) *FakeFrameReader {
	return &FakeFrameReader{Frames: frames, FailAt: -1}
}

func (r *FakeFrameReader) ReadFrame(dst []byte) error {
	if r.FailAt >= 0 && r.next == r.FailAt {
		return r.Err
	}
	if r.next >= len(r.Frames) {
		return io.EOF
	}
	copy(dst, r.Frames[r.next])
	r.next++
	return nil
}

func (r *FakeFrameReader) Close() error {
	r.Closed = true
	return nil
}

// FakeFrameWriter records every frame written to it
type FakeFrameWriter struct {
	Frames [][]byte
	// FailAfter makes writes fail once this many frames were accepted.
	// Negative disables.
	FailAfter int
	CloseErr  error
	Closed    bool
}

func NewFakeFrameWriter() *FakeFrameWriter {
	return &FakeFrameWriter{FailAfter: -1}
}

func (w *FakeFrameWriter) WriteFrame(frame []byte) error {
	if w.FailAfter >= 0 && len(w.Frames) >= w.FailAfter {
		return errors.New("mock writer: broken pipe")
	}
	w.Frames = append(w.Frames, append([]byte(nil), frame...))
	return nil
}

func (w *FakeFrameWriter) Close() error {
	w.Closed = true
	return w.CloseErr
}

// FakeMedia opens FakeFrameReaders and FakeFrameWriters
type FakeMedia struct {
	Reader  *FakeFrameReader
	Info    *video.VideoInfo
	OpenErr error

	Writer    *FakeFrameWriter
	CreateErr error

	// Created records the format passed to CreateWriter, keyed by path.
	Created map[string]video.Format
}

func NewFakeMedia(info *video.VideoInfo, frames [][]byte) *FakeMedia {
	return &FakeMedia{
		Reader:  NewFakeFrameReader(frames),
		Info:    info,
		Writer:  NewFakeFrameWriter(),
		Created: make(map[string]video.Format),
	}
}

func (m *FakeMedia) OpenReader(ctx context.Context, path string) (video.FrameReader, *video.VideoInfo, error) {
	if m.OpenErr != nil {
		return nil, nil, m.OpenErr
	}
	return m.Reader, m.Info, nil
}

func (m *FakeMedia) CreateWriter(ctx context.Context, path string, format video.Format) (video.FrameWriter, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Created[path] = format
	return m.Writer, nil
}

// MockFileSystem wraps the real file system and lets tests fail
// individual operations
type MockFileSystem struct {
	FailOperations map[string]error
	CallLog        []string
}

func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		FailOperations: make(map[string]error),
		CallLog:        make([]string, 0),
	}
}

func (m *MockFileSystem) Remove(name string) error {
	m.CallLog = append(m.CallLog, "remove:"+name)
	if err, exists := m.FailOperations["remove:"+name]; exists {
		return err
	}
	return os.Remove(name)
}

func (m *MockFileSystem) Rename(oldpath, newpath string) error {
	m.CallLog = append(m.CallLog, "rename:"+oldpath)
	if err, exists := m.FailOperations["rename:"+oldpath]; exists {
		return err
	}
	return os.Rename(oldpath, newpath)
}

// MockCommandExecutor provides a mock command executor for testing
type MockCommandExecutor struct {
	// Stdout is written to the caller's stdout, keyed by command name.
	Stdout map[string]string
	// Errors fail a command, keyed by command name.
	Errors map[string]error
	// OnRun runs after Stdout is written and before the error is returned.
	OnRun func(name string, args []string) error

	mu      sync.Mutex
	CallLog []string
	Calls   [][]string
}

func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		Stdout:  make(map[string]string),
		Errors:  make(map[string]error),
		CallLog: make([]string, 0),
	}
}

func (m *MockCommandExecutor) Run(ctx context.Context, name string, args []string, stdout io.Writer) error {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, fmt.Sprintf("%s %s", name, strings.Join(args, " ")))
	m.Calls = append(m.Calls, append([]string{name}, args...))
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if out, exists := m.Stdout[name]; exists && stdout != nil {
		if _, err := io.WriteString(stdout, out); err != nil {
			return err
		}
	}

	if m.OnRun != nil {
		if err := m.OnRun(name, args); err != nil {
			return err
		}
	}

	if err, exists := m.Errors[name]; exists {
		return err
	}

	return nil
}

// LastArgs returns the arguments of the most recent call.
func (m *MockCommandExecutor) LastArgs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	return m.Calls[len(m.Calls)-1][1:]
}
