// internal/validation/validation.go
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"frameblend/internal/video"
)

// SupportedInputFormats defines all supported input video formats
var SupportedInputFormats = []string{".mp4", ".mkv", ".mov", ".avi", ".webm", ".flv", ".wmv", ".m4v"}

// SupportedOutputFormats are the containers the blend encoder and the
// remuxer can both write.
var SupportedOutputFormats = []string{".mp4", ".mov", ".mkv", ".avi"}

// HighFrameRateWarning is the output rate above which players commonly
// drop frames.
const HighFrameRateWarning = 240.0

// getSystemDirectories returns platform-specific system directories to protect
func getSystemDirectories() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			"C:\\Windows",
			"C:\\Program Files",
			"C:\\Program Files (x86)",
			"C:\\ProgramData",
		}
	case "darwin":
		return []string{"/System", "/usr", "/bin", "/sbin", "/etc", "/private/etc", "/Applications"}
	case "linux":
		return []string{"/etc", "/usr", "/bin", "/sbin", "/boot", "/sys", "/proc"}
	default:
		return []string{"/etc", "/usr", "/bin", "/sbin"}
	}
}

// getMaxPathLength returns platform-specific maximum path length
func getMaxPathLength() int {
	switch runtime.GOOS {
	case "windows":
		return 260
	case "linux":
		return 4096
	default:
		return 1024
	}
}

// normalizePathForComparison normalizes paths for cross-platform comparison
func normalizePathForComparison(path string) string {
	if runtime.GOOS == "windows" {
		return strings.ToLower(filepath.Clean(path))
	}
	return filepath.Clean(path)
}

// stripQuotes trims whitespace and one pair of surrounding quotes, which
// Finder and Explorer add when a file is dragged into a terminal.
func stripQuotes(input string) string {
	cleaned := strings.TrimSpace(input)
	if len(cleaned) >= 2 {
		if (cleaned[0] == '\'' && cleaned[len(cleaned)-1] == '\'') ||
			(cleaned[0] == '"' && cleaned[len(cleaned)-1] == '"') {
			cleaned = cleaned[1 : len(cleaned)-1]
		}
	}
	return strings.TrimSpace(cleaned)
}

// CleanPath handles path cleaning and quote removal
func CleanPath(input string) string {
	cleaned := stripQuotes(input)
	if absPath, err := filepath.Abs(cleaned); err == nil {
		return filepath.Clean(absPath)
	}
	return filepath.Clean(cleaned)
}

// hasParentElement reports whether a ".." element appears in path. Names
// that merely contain two dots, like clip..final.mp4, are fine.
func hasParentElement(path string) bool {
	for _, elem := range strings.Split(filepath.ToSlash(path), "/") {
		if elem == ".." {
			return true
		}
	}
	return false
}

func hasExtension(path string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// ValidateInputPath validates a source video path and returns it cleaned
// and absolute.
func ValidateInputPath(input string) (string, error) {
	cleaned := stripQuotes(input)
	if cleaned == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	// Security: Check for directory traversal attempts
	if hasParentElement(cleaned) {
		return "", fmt.Errorf("path cannot contain '..' (directory traversal)")
	}

	path := CleanPath(cleaned)
	if err := validatePathCharacters(path); err != nil {
		return "", err
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return "", fmt.Errorf("cannot access file: %v", err)
	}
	if fileInfo.IsDir() {
		return "", fmt.Errorf("path points to a directory, not a file: %s", path)
	}

	if !hasExtension(path, SupportedInputFormats) {
		return "", fmt.Errorf("unsupported file format: %s. Supported formats: %s",
			strings.ToLower(filepath.Ext(path)), strings.Join(SupportedInputFormats, ", "))
	}

	if fileInfo.Size() == 0 {
		return "", fmt.Errorf("file is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cannot read file (permission denied): %v", err)
	}
	file.Close()

	return path, nil
}

// DefaultOutputName returns the file name used when the output path is a
// directory: the input's stem with an "_x<factor+1>" suffix, in the
// input's container if it can be written, mp4 otherwise.
func DefaultOutputName(inputPath string, factor int) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if !hasExtension(base, SupportedOutputFormats) {
		ext = ".mp4"
	}
	return fmt.Sprintf("%s_x%d%s", stem, factor+1, strings.ToLower(ext))
}

// ValidateOutputPath validates the destination of a run and returns it
// cleaned and absolute. An existing directory gets DefaultOutputName
// appended. Existing files are overwritten, so only writability is checked.
func ValidateOutputPath(output, inputPath string, factor int) (string, error) {
	cleaned := stripQuotes(output)
	if cleaned == "" {
		return "", fmt.Errorf("output path cannot be empty")
	}

	if hasParentElement(cleaned) {
		return "", fmt.Errorf("path cannot contain '..' (directory traversal)")
	}

	path := CleanPath(cleaned)
	if err := validatePathCharacters(path); err != nil {
		return "", err
	}

	if stat, err := os.Stat(path); err == nil && stat.IsDir() {
		path = filepath.Join(path, DefaultOutputName(inputPath, factor))
	}

	parentDir := filepath.Dir(path)
	if parentInfo, err := os.Stat(parentDir); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("output directory does not exist: %s", parentDir)
		}
		return "", fmt.Errorf("cannot access output directory: %v", err)
	} else if !parentInfo.IsDir() {
		return "", fmt.Errorf("output parent path is not a directory: %s", parentDir)
	}

	if !hasExtension(path, SupportedOutputFormats) {
		return "", fmt.Errorf("unsupported output format: %q. Supported formats: %s",
			filepath.Ext(path), strings.Join(SupportedOutputFormats, ", "))
	}

	if inputPath != "" && normalizePathForComparison(path) == normalizePathForComparison(CleanPath(inputPath)) {
		return "", fmt.Errorf("output path must differ from the input path")
	}

	if err := validatePathSecurity(path); err != nil {
		return "", fmt.Errorf("security validation failed: %v", err)
	}

	if err := checkWritePermission(parentDir); err != nil {
		return "", fmt.Errorf("cannot write to output directory: %v", err)
	}

	return path, nil
}

// StreamWarnings returns non-fatal observations about a probed source
// that the user should see before a run starts.
func StreamWarnings(info *video.VideoInfo, factor int) []string {
	var warnings []string

	if info.Width%2 != 0 || info.Height%2 != 0 {
		warnings = append(warnings, fmt.Sprintf(
			"Odd dimensions %dx%d: some encoders require even sizes and may fail", info.Width, info.Height))
	}

	if fps := info.FPS() * float64(factor+1); fps > HighFrameRateWarning {
		warnings = append(warnings, fmt.Sprintf(
			"Output rate of %.2f fps is very high; many players will drop frames", fps))
	}

	if info.FrameCount == 0 {
		warnings = append(warnings, "Frame count unknown; progress cannot be shown as a percentage")
	}

	if info.Duration > 3600 {
		warnings = append(warnings, "Video is very long (over 1 hour) - blending may take significant time")
	}

	return warnings
}

// checkWritePermission tests if we can create files in dir
func checkWritePermission(dir string) error {
	file, err := os.CreateTemp(dir, ".frameblend_write_test")
	if err != nil {
		return fmt.Errorf("no write permission: %v", err)
	}
	name := file.Name()
	file.Close()
	os.Remove(name)
	return nil
}

// validatePathSecurity performs additional security checks
func validatePathSecurity(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path: %v", err)
	}

	maxLen := getMaxPathLength()
	if len(absPath) > maxLen {
		return fmt.Errorf("path too long (max %d characters)", maxLen)
	}

	normalizedPath := normalizePathForComparison(absPath)
	for _, sysDir := range getSystemDirectories() {
		normalizedSysDir := normalizePathForComparison(sysDir)
		if normalizedPath == normalizedSysDir || strings.HasPrefix(normalizedPath, normalizedSysDir+string(filepath.Separator)) {
			return fmt.Errorf("cannot write to system directory: %s", sysDir)
		}
	}

	return nil
}

// validatePathCharacters checks for invalid characters based on OS
func validatePathCharacters(path string) error {
	if runtime.GOOS == "windows" {
		// The drive colon is legal.
		rest := path
		if len(rest) >= 2 && rest[1] == ':' {
			rest = rest[2:]
		}
		for _, char := range []string{"<", ">", ":", "\"", "|", "?", "*"} {
			if strings.Contains(rest, char) {
				return fmt.Errorf("path contains invalid character: %s", char)
			}
		}

		baseName := strings.ToUpper(filepath.Base(path))
		if idx := strings.LastIndex(baseName, "."); idx != -1 {
			baseName = baseName[:idx]
		}
		reservedNames := []string{
			"CON", "PRN", "AUX", "NUL",
			"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
			"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
		}
		for _, reserved := range reservedNames {
			if baseName == reserved {
				return fmt.Errorf("path uses reserved Windows name: %s", reserved)
			}
		}
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path contains null bytes")
	}

	return nil
}
