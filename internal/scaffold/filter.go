package scaffold

import (
	"path/filepath"
)

// platformArtifacts are OS-generated files that never belong in a scaffold.
var platformArtifacts = map[string]bool{
	".DS_Store":   true,
	"Thumbs.db":   true,
	"desktop.ini": true,
	"._.DS_Store": true,
}

// IsPlatformArtifact reports whether the base name of path is an OS artifact.
func IsPlatformArtifact(path string) bool {
	return platformArtifacts[filepath.Base(path)]
}

// MatchesPattern checks if a file path matches a glob pattern, either as a
// whole or by its base name.
func MatchesPattern(path, pattern string) bool {
	path = filepath.ToSlash(path)
	pattern = filepath.ToSlash(pattern)

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	matched, err := filepath.Match(pattern, filepath.Base(path))
	return err == nil && matched
}

// shouldIgnore reports whether a template entry is skipped.
func shouldIgnore(path string, ignorePatterns []string) bool {
	if IsPlatformArtifact(path) {
		log.Debugf("ignoring platform artifact: %s", path)
		return true
	}
	for _, pattern := range ignorePatterns {
		if MatchesPattern(path, pattern) {
			log.Debugf("ignoring %s (matched pattern: %s)", path, pattern)
			return true
		}
	}
	return false
}
