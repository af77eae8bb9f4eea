package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable Settings reads.
const EnvPrefix = "FRAMEBLEND_"

// Settings are the process-wide defaults, read from the environment.
type Settings struct {
	LogLevel     string `env:"LOG_LEVEL"     envDefault:"warn"`
	Factor       int    `env:"FACTOR"        envDefault:"2"`
	IncludeAudio bool   `env:"INCLUDE_AUDIO" envDefault:"true"`

	BlendCodec   string `env:"BLEND_CODEC"   envDefault:"mpeg4"`
	BlendQuality int    `env:"BLEND_QUALITY" envDefault:"2"`

	RemuxVideoCodec   string `env:"REMUX_VIDEO_CODEC"   envDefault:"libx264"`
	RemuxAudioCodec   string `env:"REMUX_AUDIO_CODEC"   envDefault:"aac"`
	AudioTail         string `env:"AUDIO_TAIL"          envDefault:"clamp"`
	AudioChunkSamples int    `env:"AUDIO_CHUNK_SAMPLES" envDefault:"2000"`

	MetricsFile string `env:"METRICS_FILE"`
}

func Load() (*Settings, error) {
	cfg := &Settings{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Settings) Validate() error {
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (want debug, info, warn or error)", s.LogLevel)
	}
	switch s.AudioTail {
	case "clamp", "pad":
	default:
		return fmt.Errorf("invalid audio tail policy %q (want clamp or pad)", s.AudioTail)
	}
	if s.Factor < 1 {
		return fmt.Errorf("interpolation factor must be at least 1, got %d", s.Factor)
	}
	if s.BlendCodec == "" || s.RemuxVideoCodec == "" || s.RemuxAudioCodec == "" {
		return fmt.Errorf("codec names must not be empty")
	}
	if s.BlendQuality < 1 || s.BlendQuality > 31 {
		return fmt.Errorf("blend quality must be between 1 and 31, got %d", s.BlendQuality)
	}
	if s.AudioChunkSamples < 1 {
		return fmt.Errorf("audio chunk size must be positive, got %d", s.AudioChunkSamples)
	}
	return nil
}
