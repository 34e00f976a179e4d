// Package validation provides the path and name checks shared by the CLI,
// the configuration loader and the watcher.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// dangerousChars are command separators, substitutions and redirections
// never accepted in a path. Characters that only need quoting, such as
// parentheses and apostrophes, are allowed.
var dangerousChars = []string{";", "&", "|", "$", "`", "<", ">", "\"", "\n", "\r"}

// ValidatePath validates a file path to prevent path traversal and shell
// injection. Absolute paths are accepted.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains a null byte")
	}

	if HasParentSegment(path) {
		return fmt.Errorf("path traversal detected: %s", path)
	}

	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

// HasParentSegment reports whether path still climbs out of its starting
// directory once cleaned. Names that merely contain "..", such as
// "a..b.xsl", do not count.
func HasParentSegment(path string) bool {
	clean := filepath.ToSlash(filepath.Clean(path))
	for _, segment := range strings.Split(clean, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}

// ValidateExtension checks a file extension such as ".xsl".
func ValidateExtension(ext string) error {
	if len(ext) < 2 || ext[0] != '.' {
		return fmt.Errorf("extension %q must start with a dot", ext)
	}
	if strings.ContainsAny(ext[1:], `./\`) {
		return fmt.Errorf("extension %q must not contain dots or separators", ext)
	}
	return nil
}

// ValidateFileExtension reports whether filename has one of the allowed
// extensions, ignoring case.
func ValidateFileExtension(filename string, allowedExtensions []string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file must have an extension")
	}

	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}

	return fmt.Errorf("file extension '%s' is not allowed", ext)
}
