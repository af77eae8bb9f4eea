package ffmpeg

import (
	"context"

	"frameblend/internal/video"
)

// ProbeFunc reads stream metadata for a file.
type ProbeFunc func(path string) (*video.VideoInfo, error)

// Media opens ffmpeg-backed frame readers and writers for the blender.
type Media struct {
	Codec   string
	Quality int
	Probe   ProbeFunc
}

func NewMedia(codec string, quality int) *Media {
	return &Media{Codec: codec, Quality: quality, Probe: video.GetVideoInfo}
}

func (m *Media) OpenReader(ctx context.Context, path string) (video.FrameReader, *video.VideoInfo, error) {
	info, err := m.Probe(path)
	if err != nil {
		return nil, nil, err
	}
	stream, err := startDecoder(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return stream, info, nil
}

func (m *Media) CreateWriter(ctx context.Context, path string, format video.Format) (video.FrameWriter, error) {
	return startEncoder(ctx, path, format, m.Codec, m.Quality)
}
