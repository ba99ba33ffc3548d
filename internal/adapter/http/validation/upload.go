// Package validation provides upload validation for the video ingest
// endpoint.
package validation

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrDisallowedExtension is returned when an uploaded file's extension is not
// in the allowlist.
var ErrDisallowedExtension = errors.New("unsupported video format")

// allowedExtensions is the allowlist of source containers the frame extractor
// is expected to handle.
var allowedExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
}

// maxFilenameLength is the maximum allowed filename length (common filesystem limit).
const maxFilenameLength = 255

// ValidateExtension checks the uploaded filename against the container
// allowlist and returns the normalized (lowercase) extension.
func ValidateExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", ErrDisallowedExtension
	}
	return ext, nil
}

// dangerousChars contains characters that must be replaced in filenames
// before they are stored as job metadata.
var dangerousChars = map[rune]bool{
	'"':  true,
	'\\': true,
	'/':  true,
	':':  true,
	'\n': true,
	'\r': true,
}

// SanitizeFilename makes an uploaded filename safe to record as metadata and
// echo back in API responses. Dangerous characters become underscores,
// Unicode is preserved, overlong names are truncated keeping the extension,
// and empty input becomes "file".
func SanitizeFilename(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))

	for _, r := range name {
		if shouldReplace(r) {
			sb.WriteRune('_')
		} else {
			sb.WriteRune(r)
		}
	}

	result := strings.TrimSpace(sb.String())
	if result == "" || isOnlyUnderscores(result) {
		return "file"
	}

	if len(result) > maxFilenameLength {
		result = truncatePreservingExtension(result)
	}
	return result
}

func shouldReplace(r rune) bool {
	if r < 32 || r == 127 {
		return true
	}
	return dangerousChars[r]
}

func isOnlyUnderscores(s string) bool {
	for _, r := range s {
		if r != '_' {
			return false
		}
	}
	return true
}

func truncatePreservingExtension(name string) string {
	ext := filepath.Ext(name)
	extLen := len(ext)

	if extLen == 0 || extLen >= maxFilenameLength {
		return truncateToBytes(name, maxFilenameLength)
	}

	maxBaseLen := maxFilenameLength - extLen
	baseName := name[:len(name)-extLen]
	return truncateToBytes(baseName, maxBaseLen) + ext
}

// truncateToBytes truncates a UTF-8 string to at most maxBytes bytes without
// cutting a multi-byte character in half.
func truncateToBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}

	for maxBytes > 0 && !utf8.ValidString(s[:maxBytes]) {
		maxBytes--
	}
	for maxBytes > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:maxBytes])
		if r != utf8.RuneError {
			break
		}
		maxBytes--
	}
	return s[:maxBytes]
}
