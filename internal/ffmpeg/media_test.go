package ffmpeg

import (
	"context"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frameblend/internal/interpolation"
	"frameblend/internal/job"
	"frameblend/internal/video"
)

// stalledFFmpeg puts an ffmpeg on PATH that neither reads nor writes
// until it is killed.
func stalledFFmpeg(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a unix shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\nexec sleep 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ffmpeg"), []byte(script), 0755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func stubMedia() *Media {
	m := NewMedia("mpeg4", 2)
	m.Probe = func(path string) (*video.VideoInfo, error) {
		return &video.VideoInfo{Filepath: path, Width: 4, Height: 2, FrameRate: big.NewRat(10, 1), FrameCount: 10}, nil
	}
	return m
}

func cancelAfter(d time.Duration) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(d, cancel)
	return ctx
}

func TestMediaCancellation(t *testing.T) {
	stalledFFmpeg(t)

	t.Run("blocked read reports cancellation", func(t *testing.T) {
		reader, _, err := stubMedia().OpenReader(cancelAfter(100*time.Millisecond), "in.mp4")
		require.NoError(t, err)
		defer reader.Close()

		err = reader.ReadFrame(make([]byte, 4*2*video.Depth))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("blocked write reports cancellation", func(t *testing.T) {
		format := video.Format{Width: 512, Height: 512, FrameRate: big.NewRat(10, 1)}
		writer, err := stubMedia().CreateWriter(cancelAfter(100*time.Millisecond), filepath.Join(t.TempDir(), "out.mp4"), format)
		require.NoError(t, err)

		// Larger than any pipe buffer, so the write blocks until ffmpeg dies.
		err = writer.WriteFrame(make([]byte, format.FrameSize()))
		assert.ErrorIs(t, err, context.Canceled)
		writer.Close()
	})

	t.Run("blend interrupted mid read is canceled", func(t *testing.T) {
		blender := interpolation.NewInterpolator(stubMedia(), nil)
		_, err := blender.InterpolateVideo(cancelAfter(100*time.Millisecond), "in.mp4", filepath.Join(t.TempDir(), "out.mp4"), 1, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, job.ErrCanceled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, job.KindCanceled, job.KindOf(err))
	})
}
