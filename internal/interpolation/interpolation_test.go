package interpolation

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frameblend/internal/job"
	"frameblend/internal/mocks"
	"frameblend/internal/video"
)

// solid returns a w x h frame with every channel set to v.
func solid(w, h int, v byte) []byte {
	f := make([]byte, w*h*video.Depth)
	for i := range f {
		f[i] = v
	}
	return f
}

func testInfo(w, h int, rate *big.Rat, frames int) *video.VideoInfo {
	return &video.VideoInfo{
		Filepath:   "in.mp4",
		Width:      w,
		Height:     h,
		FrameRate:  rate,
		FrameCount: frames,
	}
}

func TestMix(t *testing.T) {
	t.Run("midpoint rounds half up", func(t *testing.T) {
		dst := make([]byte, 3)
		Mix(dst, []byte{0, 10, 1}, []byte{255, 20, 2}, 1, 2)
		// 127.5 -> 128, 15 -> 15, 1.5 -> 2
		assert.Equal(t, []byte{128, 15, 2}, dst)
	})

	t.Run("extremes stay in range", func(t *testing.T) {
		dst := make([]byte, 2)
		Mix(dst, []byte{0, 255}, []byte{0, 255}, 1, 2)
		assert.Equal(t, []byte{0, 255}, dst)

		Mix(dst, []byte{255, 255}, []byte{255, 0}, 2, 3)
		assert.Equal(t, []byte{255, 85}, dst)
	})

	t.Run("endpoints", func(t *testing.T) {
		a := []byte{10, 20, 30}
		b := []byte{40, 50, 60}
		dst := make([]byte, 3)

		Mix(dst, a, b, 0, 4)
		assert.Equal(t, a, dst)
		Mix(dst, a, b, 4, 4)
		assert.Equal(t, b, dst)
	})
}

// blendFloat is the floating point cross-dissolve Mix must agree with.
func blendFloat(dst, a, b []byte, alpha float64) {
	for i := range dst {
		v := math.Round(float64(a[i])*(1-alpha) + float64(b[i])*alpha)
		dst[i] = byte(math.Max(0, math.Min(255, v)))
	}
}

func TestMixMatchesFloatBlend(t *testing.T) {
	a := make([]byte, 256)
	b := make([]byte, 256)
	for i := range a {
		a[i] = byte(i)
		b[i] = byte(255 - i)
	}

	for _, factor := range []int{1, 2, 3, 4} {
		for step := 1; step <= factor; step++ {
			want := make([]byte, len(a))
			got := make([]byte, len(a))
			blendFloat(want, a, b, float64(step)/float64(factor+1))
			Mix(got, a, b, step, factor+1)
			assert.Equal(t, want, got, "factor %d step %d", factor, step)
		}
	}
}

func TestOutputFrameCount(t *testing.T) {
	tests := []struct {
		n, factor, want int
	}{
		{0, 3, 0},
		{1, 3, 1},
		{2, 1, 3},
		{3, 1, 5},
		{10, 0, 10},
		{10, 3, 37},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputFrameCount(tt.n, tt.factor), "n=%d factor=%d", tt.n, tt.factor)
	}
}

func TestOutputFrameRate(t *testing.T) {
	ntsc := big.NewRat(30000, 1001)
	got := OutputFrameRate(ntsc, 1)
	assert.Equal(t, "60000/1001", got.RatString())
	assert.Equal(t, "30000/1001", ntsc.RatString(), "input rate must not be modified")

	assert.Equal(t, "24", OutputFrameRate(big.NewRat(24, 1), 0).RatString())
}

func TestInterpolateVideo(t *testing.T) {
	t.Run("three frames factor one", func(t *testing.T) {
		frames := [][]byte{solid(2, 2, 0), solid(2, 2, 100), solid(2, 2, 201)}
		media := mocks.NewFakeMedia(testInfo(2, 2, big.NewRat(10, 1), 3), frames)

		var events []job.Progress
		result, err := NewInterpolator(media, nil).InterpolateVideo(context.Background(), "in.mp4", "out.mp4", 1,
			func(p job.Progress) { events = append(events, p) })
		require.NoError(t, err)

		out := media.Writer.Frames
		require.Len(t, out, 5)
		assert.Equal(t, frames[0], out[0])
		assert.Equal(t, solid(2, 2, 50), out[1])
		assert.Equal(t, frames[1], out[2])
		assert.Equal(t, solid(2, 2, 151), out[3]) // 150.5 rounds up
		assert.Equal(t, frames[2], out[4])

		format := media.Created["out.mp4"]
		assert.Equal(t, 2, format.Width)
		assert.Equal(t, 2, format.Height)
		assert.Equal(t, "20", format.FrameRate.RatString())

		assert.Equal(t, 3, result.OriginalFrameCount)
		assert.Equal(t, 5, result.InterpolatedFrameCount)
		assert.Equal(t, "20", result.InterpolatedFPS.RatString())
		assert.True(t, media.Writer.Closed)
		assert.True(t, media.Reader.Closed)

		require.Len(t, events, 3)
		for i, e := range events {
			assert.Equal(t, job.PhaseBlending, e.Phase)
			assert.Equal(t, i+1, e.Done)
			assert.Equal(t, 3, e.Total)
		}
	})

	t.Run("frame count follows formula", func(t *testing.T) {
		for _, factor := range []int{0, 1, 2, 5} {
			frames := make([][]byte, 7)
			for i := range frames {
				frames[i] = solid(1, 1, byte(i*30))
			}
			media := mocks.NewFakeMedia(testInfo(1, 1, big.NewRat(25, 1), 7), frames)

			result, err := NewInterpolator(media, nil).InterpolateVideo(context.Background(), "in", "out", factor, nil)
			require.NoError(t, err)
			assert.Len(t, media.Writer.Frames, OutputFrameCount(7, factor))
			assert.Equal(t, OutputFrameCount(7, factor), result.InterpolatedFrameCount)
		}
	})

	t.Run("factor zero copies frames", func(t *testing.T) {
		frames := [][]byte{solid(1, 1, 1), solid(1, 1, 2), solid(1, 1, 3)}
		media := mocks.NewFakeMedia(testInfo(1, 1, big.NewRat(30000, 1001), 3), frames)

		_, err := NewInterpolator(media, nil).InterpolateVideo(context.Background(), "in", "out", 0, nil)
		require.NoError(t, err)
		assert.Equal(t, frames, media.Writer.Frames)
		assert.Equal(t, "30000/1001", media.Created["out"].FrameRate.RatString())
	})

	t.Run("single frame", func(t *testing.T) {
		media := mocks.NewFakeMedia(testInfo(1, 1, big.NewRat(24, 1), 1), [][]byte{solid(1, 1, 9)})

		result, err := NewInterpolator(media, nil).InterpolateVideo(context.Background(), "in", "out", 3, nil)
		require.NoError(t, err)
		assert.Equal(t, [][]byte{solid(1, 1, 9)}, media.Writer.Frames)
		assert.Equal(t, "96", result.InterpolatedFPS.RatString())
	})

	t.Run("empty source leaves output alone", func(t *testing.T) {
		media := mocks.NewFakeMedia(testInfo(1, 1, big.NewRat(24, 1), 0), nil)

		_, err := NewInterpolator(media, nil).InterpolateVideo(context.Background(), "in", "out", 1, nil)
		assert.ErrorIs(t, err, job.ErrEmptySource)
		assert.Empty(t, media.Created)
	})

	t.Run("open failure", func(t *testing.T) {
		media := mocks.NewFakeMedia(nil, nil)
		media.OpenErr = errors.New("no such file")

		_, err := NewInterpolator(media, nil).InterpolateVideo(context.Background(), "missing.mp4", "out", 1, nil)
		assert.ErrorIs(t, err, job.ErrSourceOpen)
		assert.Empty(t, media.Created)
	})

	t.Run("negative factor", func(t *testing.T) {
		media := mocks.NewFakeMedia(testInfo(1, 1, big.NewRat(24, 1), 1), [][]byte{solid(1, 1, 0)})

		_, err := NewInterpolator(media, nil).InterpolateVideo(context.Background(), "in", "out", -1, nil)
		assert.ErrorIs(t, err, job.ErrProcessing)
	})

	t.Run("decode error mid stream", func(t *testing.T) {
		frames := [][]byte{solid(1, 1, 0), solid(1, 1, 10), solid(1, 1, 20)}
		media := mocks.NewFakeMedia(testInfo(1, 1, big.NewRat(24, 1), 3), frames)
		media.Reader.FailAt = 2
		media.Reader.Err = errors.New("truncated frame")

		_, err := NewInterpolator(media, nil).InterpolateVideo(context.Background(), "in", "out", 1, nil)
		assert.ErrorIs(t, err, job.ErrProcessing)
		assert.True(t, media.Writer.Closed)
	})

	t.Run("encoder failure", func(t *testing.T) {
		frames := [][]byte{solid(1, 1, 0), solid(1, 1, 10), solid(1, 1, 20)}
		media := mocks.NewFakeMedia(testInfo(1, 1, big.NewRat(24, 1), 3), frames)
		media.Writer.FailAfter = 2

		_, err := NewInterpolator(media, nil).InterpolateVideo(context.Background(), "in", "out", 1, nil)
		assert.ErrorIs(t, err, job.ErrProcessing)
		assert.Len(t, media.Writer.Frames, 2)
	})

	t.Run("close failure", func(t *testing.T) {
		media := mocks.NewFakeMedia(testInfo(1, 1, big.NewRat(24, 1), 1), [][]byte{solid(1, 1, 0)})
		media.Writer.CloseErr = errors.New("exit status 1")

		_, err := NewInterpolator(media, nil).InterpolateVideo(context.Background(), "in", "out", 1, nil)
		assert.ErrorIs(t, err, job.ErrProcessing)
	})

	t.Run("canceled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		media := mocks.NewFakeMedia(testInfo(1, 1, big.NewRat(24, 1), 1), [][]byte{solid(1, 1, 0)})

		_, err := NewInterpolator(media, nil).InterpolateVideo(ctx, "in", "out", 1, nil)
		assert.ErrorIs(t, err, job.ErrCanceled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, media.Created)
	})

	t.Run("canceled mid stream", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		frames := make([][]byte, 10)
		for i := range frames {
			frames[i] = solid(1, 1, byte(i))
		}
		media := mocks.NewFakeMedia(testInfo(1, 1, big.NewRat(24, 1), 10), frames)

		var last job.Progress
		_, err := NewInterpolator(media, nil).InterpolateVideo(ctx, "in", "out", 1, func(p job.Progress) {
			last = p
			if p.Done == 4 {
				cancel()
			}
		})
		assert.ErrorIs(t, err, job.ErrCanceled)
		assert.Equal(t, 4, last.Done)
		assert.True(t, media.Writer.Closed)
	})
}
