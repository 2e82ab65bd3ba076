package errors

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSourceSize is the largest diagram source accepted, in bytes.
const MaxSourceSize = 1 << 20

// ValidateDiagramSource validates diagram source text before it reaches the
// lexer.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only sources
//   - Valid UTF-8
//   - No null bytes
//   - Maximum size of MaxSourceSize bytes
func ValidateDiagramSource(src string) error {
	if strings.TrimSpace(src) == "" {
		return New(ErrCodeInvalidInput, "diagram source cannot be empty")
	}

	if len(src) > MaxSourceSize {
		return New(ErrCodeInvalidInput, "diagram source too large (max %d bytes)", MaxSourceSize)
	}

	if !utf8.ValidString(src) {
		return New(ErrCodeInvalidInput, "diagram source is not valid UTF-8")
	}

	if strings.ContainsRune(src, 0) {
		return New(ErrCodeInvalidInput, "diagram source contains null bytes")
	}

	return nil
}

// ValidateFormat checks that format is one of allowed (case-sensitive).
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}

// ValidateStyle validates a CSS declaration list such as "fill:#f9f;stroke:#333".
// Every non-empty declaration needs a property name and must not try to break
// out of the style attribute.
func ValidateStyle(style string) error {
	if strings.ContainsAny(style, `<>"`) {
		return New(ErrCodeInvalidStyle, "style contains invalid characters")
	}
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, _, ok := strings.Cut(decl, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return New(ErrCodeInvalidStyle, "invalid style declaration: %q", decl)
		}
	}
	return nil
}

// ValidatePath validates a file path within a workspace for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// diagramIDRegex matches the canonical UUID form used for stored diagrams.
var diagramIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateDiagramID validates a stored diagram identifier.
func ValidateDiagramID(id string) error {
	if !diagramIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid diagram id: %q", id)
	}
	return nil
}
