// Package pathsafe normalizes user and network supplied relative paths
// (subfolder + filename) into a canonical forward-slash form.
package pathsafe

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrRejected marks a path that cannot be turned into a safe relative path.
var ErrRejected = errors.New("path rejected")

// PathError describes which part of a path was rejected
type PathError struct {
	Field string
	Value string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, ErrRejected)
}

func (e *PathError) Unwrap() error {
	return ErrRejected
}

// SanitizeSubfolder converts backslashes, strips leading slashes and drops empty
// and "." segments. Any ".." segment rejects the whole value. An empty or "."
// input yields the empty path.
func SanitizeSubfolder(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	normalized := strings.TrimLeft(strings.ReplaceAll(value, `\`, "/"), "/")

	parts := make([]string, 0, strings.Count(normalized, "/")+1)
	for _, part := range strings.Split(normalized, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", &PathError{Field: "subfolder", Value: value}
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "/"), nil
}

// SanitizeFilename keeps only the final path component of value.
func SanitizeFilename(value string) (string, error) {
	name := value
	if i := strings.LastIndexAny(value, `/\`); i >= 0 {
		name = value[i+1:]
	}
	if name == "" || name == "." || strings.Contains(name, "..") {
		return "", &PathError{Field: "filename", Value: value}
	}
	return name, nil
}

// BuildRelativePath joins a sanitized subfolder and filename with "/".
func BuildRelativePath(subfolder, filename string) (string, error) {
	safeSubfolder, err := SanitizeSubfolder(subfolder)
	if err != nil {
		return "", err
	}
	safeFilename, err := SanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	if safeSubfolder == "" {
		return safeFilename, nil
	}
	return safeSubfolder + "/" + safeFilename, nil
}

// Split breaks a relative path into its subfolder and filename parts.
func Split(relativePath string) (subfolder, filename string) {
	i := strings.LastIndex(relativePath, "/")
	if i < 0 {
		return "", relativePath
	}
	return relativePath[:i], relativePath[i+1:]
}

// WithSuffix returns name with " (n)" inserted before the extension, the
// naming used when a target already exists. n <= 0 returns name unchanged.
func WithSuffix(name string, n int) string {
	if n <= 0 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
}
