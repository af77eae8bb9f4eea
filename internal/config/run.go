package config

import (
	"fmt"
	"path/filepath"
)

// RunConfig is everything one blend-and-remux run needs. It is passed by
// value into the pipeline.
type RunConfig struct {
	InputPath    string
	OutputPath   string
	Factor       int
	IncludeAudio bool
}

func (c RunConfig) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if c.Factor < 1 {
		return fmt.Errorf("interpolation factor must be at least 1, got %d", c.Factor)
	}

	in, err := filepath.Abs(c.InputPath)
	if err != nil {
		return fmt.Errorf("cannot resolve input path: %w", err)
	}
	out, err := filepath.Abs(c.OutputPath)
	if err != nil {
		return fmt.Errorf("cannot resolve output path: %w", err)
	}
	if in == out {
		return fmt.Errorf("output path must differ from input path")
	}
	return nil
}
