// internal/video/info.go
package video

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"os"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type VideoInfo struct {
	Filepath   string
	FileSize   int64
	Width      int
	Height     int
	FrameRate  *big.Rat
	FrameCount int
	Duration   float64
	Format     string
	Bitrate    int64
	VideoCodec string
	// Rotation is the display rotation in degrees, normalized to
	// [0, 360). Width and Height are already swapped for 90 and 270.
	Rotation int

	HasAudio        bool
	AudioCodec      string
	AudioSampleRate int
	AudioDuration   float64
}

// SideData is one entry of a stream's side_data_list. Only the display
// matrix rotation is read.
type SideData struct {
	Rotation float64 `json:"rotation"`
}

type FFProbeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		Duration     string `json:"duration"`
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		SampleRate   string `json:"sample_rate"`
		Tags         struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
		SideDataList []SideData `json:"side_data_list"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Bitrate  string `json:"bit_rate"`
		Format   string `json:"format_name"`
	} `json:"format"`
}

// FPS returns the frame rate as a float for display.
func (v *VideoInfo) FPS() float64 {
	if v.FrameRate == nil {
		return 0
	}
	f, _ := v.FrameRate.Float64()
	return f
}

// FrameFormat returns the raw frame format of the video stream.
func (v *VideoInfo) FrameFormat() Format {
	return Format{Width: v.Width, Height: v.Height, FrameRate: v.FrameRate}
}

func GetVideoInfo(filepath string) (*VideoInfo, error) {
	fileInfo, err := os.Stat(filepath)
	if err != nil {
		return nil, err
	}

	output, err := ffmpeg.Probe(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	return ParseProbeOutput(filepath, fileInfo.Size(), []byte(output))
}

// ParseProbeOutput builds a VideoInfo from `ffprobe -of json -show_format
// -show_streams` output. The first video and first audio stream are used.
func ParseProbeOutput(filepath string, fileSize int64, data []byte) (*VideoInfo, error) {
	var probe FFProbeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &VideoInfo{
		Filepath: filepath,
		FileSize: fileSize,
		Format:   probe.Format.Format,
	}

	if probe.Format.Duration != "" {
		if duration, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			info.Duration = duration
		}
	}

	if probe.Format.Bitrate != "" {
		if bitrate, err := strconv.ParseInt(probe.Format.Bitrate, 10, 64); err == nil {
			info.Bitrate = bitrate
		}
	}

	foundVideo := false
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName

			// ffmpeg autorotates while decoding, so frames arrive in
			// display orientation.
			info.Rotation = streamRotation(stream.Tags.Rotate, stream.SideDataList)
			if info.Rotation == 90 || info.Rotation == 270 {
				info.Width, info.Height = info.Height, info.Width
			}

			rate, err := ParseFrameRate(stream.RFrameRate)
			if err != nil {
				rate, err = ParseFrameRate(stream.AvgFrameRate)
			}
			if err != nil {
				return nil, fmt.Errorf("video stream has no usable frame rate: %w", err)
			}
			info.FrameRate = rate

			if n, err := strconv.Atoi(stream.NbFrames); err == nil && n > 0 {
				info.FrameCount = n
			}
			if info.Duration == 0 {
				if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
					info.Duration = d
				}
			}
		case "audio":
			if info.HasAudio {
				continue
			}
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
			if sr, err := strconv.Atoi(stream.SampleRate); err == nil {
				info.AudioSampleRate = sr
			}
			if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
				info.AudioDuration = d
			}
		}
	}

	if !foundVideo {
		return nil, fmt.Errorf("no video stream found in %s", filepath)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("invalid video dimensions %dx%d", info.Width, info.Height)
	}

	// Containers without nb_frames (mkv, webm) get an estimate; progress
	// may then stop short of 100%.
	if info.FrameCount == 0 && info.Duration > 0 {
		info.FrameCount = int(math.Round(info.Duration * info.FPS()))
	}

	return info, nil
}

// streamRotation prefers the display matrix side data and falls back to
// the legacy rotate tag.
func streamRotation(tag string, sideData []SideData) int {
	deg := 0
	found := false
	for _, sd := range sideData {
		if sd.Rotation != 0 {
			deg = int(math.Round(sd.Rotation))
			found = true
			break
		}
	}
	if !found && tag != "" {
		if r, err := strconv.Atoi(strings.TrimSpace(tag)); err == nil {
			deg = r
		}
	}
	return ((deg % 360) + 360) % 360
}

// ParseFrameRate parses an ffprobe rate such as "30000/1001" or "25".
func ParseFrameRate(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty frame rate")
	}
	rate, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid frame rate %q", s)
	}
	if rate.Sign() <= 0 {
		return nil, fmt.Errorf("frame rate must be positive, got %q", s)
	}
	return rate, nil
}
