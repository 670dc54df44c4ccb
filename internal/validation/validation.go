// Package validation checks archive member names before they are mapped
// onto the file system.
package validation

import (
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/opusread/core/errors"
)

// MaxPathLength is the maximum accepted member name length.
const MaxPathLength = 4096

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
)

// ValidateMember checks a slash-separated archive member or document name.
// Names must be relative, must not climb out of their root, and must not
// contain NUL or other control characters.
func ValidateMember(name string) error {
	if name == "" {
		return memberError(name, ErrEmptyPath)
	}
	if len(name) > MaxPathLength {
		return memberError(name, ErrPathTooLong)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return memberError(name, ErrInvalidCharacter)
		}
	}
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return memberError(name, ErrPathTraversal)
	}
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return memberError(name, ErrPathTraversal)
	}
	return nil
}

// SanitizeMember returns the file system path of member name below root.
func SanitizeMember(root, name string) (string, error) {
	if err := ValidateMember(name); err != nil {
		return "", err
	}
	full := filepath.Join(root, filepath.FromSlash(path.Clean(name)))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", memberError(name, ErrPathTraversal)
	}
	return full, nil
}

func memberError(name string, err error) error {
	return &errors.ValidationError{Field: "member", Value: name, Message: err.Error(), Err: err}
}
