package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"frameblend/internal/video"
)

// DecodeArgs returns the ffmpeg arguments that decode the first video
// stream of path to raw rgb24 frames on stdout.
func DecodeArgs(path string) []string {
	return ffmpeggo.Input(path, ffmpeggo.KwArgs{"loglevel": "error"}).
		Output("pipe:", ffmpeggo.KwArgs{
			"format":  "rawvideo",
			"pix_fmt": video.PixelFormat,
			"map":     "0:v:0",
		}).
		GetArgs()
}

// EncodeArgs returns the ffmpeg arguments that encode raw rgb24 frames
// read from stdin into path at exactly format.FrameRate.
func EncodeArgs(path string, format video.Format, codec string, quality int) []string {
	return ffmpeggo.Input("pipe:", ffmpeggo.KwArgs{
		"loglevel":  "error",
		"format":    "rawvideo",
		"pix_fmt":   video.PixelFormat,
		"s":         format.Size(),
		"framerate": format.FrameRate.RatString(),
	}).
		Output(path, ffmpeggo.KwArgs{
			"c:v":     codec,
			"pix_fmt": "yuv420p",
			"q:v":     strconv.Itoa(quality),
		}).
		OverWriteOutput().
		GetArgs()
}

// frameStream reads fixed-size frames from a decoder's stdout.
type frameStream struct {
	r    io.Reader
	wait func() error
	stop func()

	once    sync.Once
	waitErr error
}

func (s *frameStream) finish() error {
	s.once.Do(func() { s.waitErr = s.wait() })
	return s.waitErr
}

// ReadFrame fills dst with the next frame. A stream that ends between
// frames returns io.EOF unless the decoder exited with an error. A stream
// that ends inside a frame is an error.
func (s *frameStream) ReadFrame(dst []byte) error {
	_, err := io.ReadFull(s.r, dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		if werr := s.finish(); werr != nil {
			return werr
		}
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		if werr := s.finish(); werr != nil {
			return werr
		}
		return fmt.Errorf("decoder stream ended inside a frame of %d bytes", len(dst))
	default:
		return err
	}
}

// Close stops the decoder if it is still running.
func (s *frameStream) Close() error {
	if s.stop != nil {
		s.stop()
	}
	s.finish()
	return nil
}

// frameSink writes frames to an encoder's stdin.
type frameSink struct {
	w    io.WriteCloser
	wait func() error

	once     sync.Once
	closeErr error
}

func (s *frameSink) WriteFrame(frame []byte) error {
	if _, err := s.w.Write(frame); err != nil {
		if cerr := s.Close(); cerr != nil {
			return fmt.Errorf("%w (%w)", err, cerr)
		}
		return err
	}
	return nil
}

// Close ends the input and waits for the encoder to finish the file.
func (s *frameSink) Close() error {
	s.once.Do(func() {
		cerr := s.w.Close()
		if werr := s.wait(); werr != nil {
			s.closeErr = werr
			return
		}
		s.closeErr = cerr
	})
	return s.closeErr
}

func startDecoder(parent context.Context, path string) (*frameStream, error) {
	ctx, cancel := context.WithCancel(parent)
	cmd := exec.CommandContext(ctx, "ffmpeg", DecodeArgs(path)...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start ffmpeg decoder: %w", err)
	}

	stopped := false
	return &frameStream{
		r: stdout,
		stop: func() {
			stopped = true
			cancel()
		},
		wait: func() error {
			err := cmd.Wait()
			cancel()
			if err == nil || stopped {
				return nil
			}
			if cerr := parent.Err(); cerr != nil {
				return cerr
			}
			return commandError("ffmpeg decoder", err, stderrBuf.String())
		},
	}, nil
}

func startEncoder(ctx context.Context, path string, format video.Format, codec string, quality int) (*frameSink, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", EncodeArgs(path, format, codec, quality)...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg encoder: %w", err)
	}

	return &frameSink{
		w: stdin,
		wait: func() error {
			if err := cmd.Wait(); err != nil {
				if cerr := ctx.Err(); cerr != nil {
					return cerr
				}
				return commandError("ffmpeg encoder", err, stderrBuf.String())
			}
			return nil
		},
	}, nil
}
