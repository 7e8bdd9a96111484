package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds node, port and edge identifiers.
const maxIDLength = 256

// ValidateID validates a node, port or edge identifier.
// Identifiers are opaque to the canvas, so the rules only reject values that
// cannot round-trip through the layout engine:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidGraph, "%s id cannot be empty", kind)
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidGraph, "%s id too long (max %d characters)", kind, maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "%s id %q contains invalid control characters", kind, id)
		}
	}

	return nil
}

// ValidatePath validates a file path referenced from a configuration file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateLayoutOption validates a pass-through layout option key.
// Keys become Graphviz graph attributes, so they must be plain identifiers.
func ValidateLayoutOption(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "layout option key cannot be empty")
	}
	if strings.IndexFunc(key, func(r rune) bool {
		return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
	}) >= 0 {
		return New(ErrCodeInvalidInput, "invalid layout option key: %q", key)
	}
	return nil
}
