// Package security validates user-supplied file paths before they are opened.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// forbiddenChars are shell metacharacters never expected in a config path.
const forbiddenChars = ";&|$`(){}<>!\n\r"

// ValidateFilePath cleans path, makes it absolute and resolves symlinks. A
// path that does not exist yet is returned cleaned.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	if i := strings.IndexAny(path, forbiddenChars); i >= 0 {
		return "", fmt.Errorf("file path contains forbidden character %q: %s", path[i], path)
	}

	clean, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve file path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return clean, nil
		}
		return "", fmt.Errorf("resolve file path: %w", err)
	}
	return resolved, nil
}

// SafeReadFile is os.ReadFile behind ValidateFilePath.
func SafeReadFile(path string) ([]byte, error) {
	clean, err := ValidateFilePath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path is validated above
	return os.ReadFile(clean)
}

// SafeOpen is os.Open behind ValidateFilePath.
func SafeOpen(path string) (*os.File, error) {
	clean, err := ValidateFilePath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path is validated above
	return os.Open(clean)
}
