package errors

import (
	"strings"
	"unicode"
)

// ValidateDatasetName validates a dataset name.
//
// The rules are intentionally permissive because imported data often
// carries descriptive column names ("time (s)"):
//   - No empty names
//   - No control characters
//   - No backquotes (they delimit quoted names in expressions)
//   - Maximum length of 256 characters
func ValidateDatasetName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "dataset name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "dataset name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "dataset name contains control characters")
		}
	}

	if strings.Contains(name, "`") {
		return New(ErrCodeInvalidName, "dataset name cannot contain backquotes")
	}

	return nil
}

// ValidateWidgetName validates a widget name. Widget names become path
// segments, so the rules are stricter than for datasets:
//   - No empty names
//   - No path separators
//   - No control characters or whitespace
//   - Not "." or ".."
//   - Maximum length of 128 characters
func ValidateWidgetName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "widget name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidName, "widget name too long (max 128 characters)")
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidName, "widget name cannot be %q", name)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidName, "widget name contains whitespace or control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidName, "widget name cannot contain path separators")
	}

	return nil
}

// ValidateWidgetPath validates an absolute widget path such as
// "/page1/graph1/x". The root path "/" is valid.
func ValidateWidgetPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "widget path cannot be empty")
	}

	if !strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "widget path must be absolute (start with /)")
	}

	if path == "/" {
		return nil
	}

	for _, seg := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		if seg == "" {
			return New(ErrCodeInvalidPath, "widget path contains an empty segment")
		}
		if err := ValidateWidgetName(seg); err != nil {
			return New(ErrCodeInvalidPath, "widget path segment %q: %s", seg, UserMessage(err))
		}
	}

	return nil
}

// ValidateTag validates a dataset tag.
func ValidateTag(tag string) error {
	if tag == "" {
		return New(ErrCodeInvalidInput, "tag cannot be empty")
	}

	for _, r := range tag {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "tag contains whitespace or control characters")
		}
	}

	return nil
}
