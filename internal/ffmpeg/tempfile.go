package ffmpeg

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const remuxMarker = ".remux-"

// TempPath returns the hidden sibling of target that a remux writes to
// before it replaces target. The extension is kept so ffmpeg picks the
// same container.
func TempPath(target, id string) string {
	dir, name := filepath.Split(target)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return filepath.Join(dir, "."+stem+remuxMarker+id+ext)
}

// FindLeftovers lists remux temp files for target that a failed finalize
// left behind, oldest name first.
func FindLeftovers(target string) ([]string, error) {
	dir, name := filepath.Split(target)
	if dir == "" {
		dir = "."
	}
	ext := filepath.Ext(name)
	prefix := "." + strings.TrimSuffix(name, ext) + remuxMarker

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var leftovers []string
	for _, entry := range entries {
		n := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(n, prefix) || !strings.HasSuffix(n, ext) {
			continue
		}
		leftovers = append(leftovers, filepath.Join(dir, n))
	}

	sort.Strings(leftovers)
	return leftovers, nil
}
