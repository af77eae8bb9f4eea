package video

import (
	"math/big"
	"strconv"
)

// Depth is the number of 8-bit channels per pixel (rgb24).
const Depth = 3

// PixelFormat is the ffmpeg name of the raw frame layout used throughout.
const PixelFormat = "rgb24"

// Format describes raw frames flowing between decoder, blender and encoder.
type Format struct {
	Width     int
	Height    int
	FrameRate *big.Rat
}

// FrameSize returns the number of bytes in one frame.
func (f Format) FrameSize() int {
	return f.Width * f.Height * Depth
}

// Size returns the WxH string ffmpeg expects for rawvideo.
func (f Format) Size() string {
	return strconv.Itoa(f.Width) + "x" + strconv.Itoa(f.Height)
}

// FrameReader yields decoded frames in order. ReadFrame fills dst, which
// must be FrameSize() bytes long, and returns io.EOF after the last frame.
type FrameReader interface {
	ReadFrame(dst []byte) error
	Close() error
}

// FrameWriter consumes frames in presentation order.
type FrameWriter interface {
	WriteFrame(frame []byte) error
	Close() error
}
