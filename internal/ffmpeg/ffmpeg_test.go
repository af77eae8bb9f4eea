package ffmpeg

import (
	"bytes"
	"context"
	"math/big"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frameblend/internal/video"
)

func findArgIndex(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}

// argValue returns the argument following flag, or "" if flag is absent.
func argValue(args []string, flag string) string {
	i := findArgIndex(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func TestDecodeArgs(t *testing.T) {
	args := DecodeArgs("/videos/in.mp4")

	assert.Equal(t, "/videos/in.mp4", argValue(args, "-i"))
	assert.Equal(t, "rawvideo", argValue(args, "-f"))
	assert.Equal(t, "rgb24", argValue(args, "-pix_fmt"))
	assert.Equal(t, "0:v:0", argValue(args, "-map"))
	assert.Equal(t, "pipe:", args[len(args)-1])
}

func TestEncodeArgs(t *testing.T) {
	format := video.Format{Width: 640, Height: 360, FrameRate: big.NewRat(60000, 1001)}
	args := EncodeArgs("/videos/out.mp4", format, "mpeg4", 2)

	assert.Equal(t, "pipe:", argValue(args, "-i"))
	assert.Equal(t, "rawvideo", argValue(args, "-f"))
	assert.Equal(t, "640x360", argValue(args, "-s"))
	assert.Equal(t, "60000/1001", argValue(args, "-framerate"), "rate must be passed as an exact rational")
	assert.Equal(t, "mpeg4", argValue(args, "-c:v"))
	assert.Equal(t, "2", argValue(args, "-q:v"))
	assert.NotEqual(t, -1, findArgIndex(args, "-y"), "existing output must be overwritten")
	assert.Equal(t, "/videos/out.mp4", args[len(args)-1])

	// Input options must precede the input.
	assert.Less(t, findArgIndex(args, "-framerate"), findArgIndex(args, "-i"))
}

func TestLimitedWriter(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, limit: 10}

	n, err := lw.Write([]byte("hello "))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	n, err = lw.Write([]byte("world, this is long"))
	require.NoError(t, err)
	assert.Equal(t, 19, n)
	assert.Equal(t, "is is long", buf.String())
	assert.Equal(t, 10, buf.Len())
}

func TestCommandExecutor(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	t.Run("streams stdout", func(t *testing.T) {
		var out bytes.Buffer
		err := CommandExecutor{}.Run(context.Background(), "sh", []string{"-c", "echo out_time_us=5"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "out_time_us=5\n", out.String())
	})

	t.Run("failure carries stderr", func(t *testing.T) {
		err := CommandExecutor{}.Run(context.Background(), "sh", []string{"-c", "echo codec not found >&2; exit 3"}, nil)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "codec not found"), err.Error())
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := CommandExecutor{}.Run(ctx, "sh", []string{"-c", "sleep 5"}, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAvailability(t *testing.T) {
	_, err := exec.LookPath("ffmpeg")
	assert.Equal(t, err == nil, IsFFmpegAvailable())

	_, err = exec.LookPath("ffprobe")
	assert.Equal(t, err == nil, IsFFprobeAvailable())
}
