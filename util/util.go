package util

import (
	"os"
	"path/filepath"
	"strings"
)

// StringListContains returns true if the list of strings contains item.
func StringListContains(list []string, item string) bool {
	for i := range list {
		if list[i] == item {
			return true
		}
	}
	return false
}

// FileExists returns true if the file at path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ExpandTilde expands the ~ prefix in a path to the current user's
// home directory.
func ExpandTilde(dirName string) (string, error) {
	if !strings.HasPrefix(dirName, "~") {
		return dirName, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(dirName, "~")), nil
}

// TestsAreRunning returns true when code is executing under "go test".
func TestsAreRunning() bool {
	return strings.HasSuffix(os.Args[0], ".test") ||
		strings.Contains(os.Args[0], "/_test/")
}
