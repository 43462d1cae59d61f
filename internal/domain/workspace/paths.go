package workspace

import (
	"fmt"
	"path"
	"strings"
)

// Separator is the root and directory separator of workspace paths
const Separator = "/"

// MaxPathLength bounds a single workspace path
const MaxPathLength = 512

// NormalizePath validates p and returns its canonical form.
// A missing leading separator is added and the path is cleaned.
func NormalizePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("%w: path is empty", ErrInvalidPath)
	}
	if len(p) > MaxPathLength {
		return "", fmt.Errorf("%w: path exceeds %d bytes", ErrInvalidPath, MaxPathLength)
	}
	if strings.ContainsAny(p, "\x00\\") {
		return "", fmt.Errorf("%w: %q contains a forbidden character", ErrInvalidPath, p)
	}
	if !strings.HasPrefix(p, Separator) {
		p = Separator + p
	}

	cleaned := path.Clean(p)
	if cleaned == Separator {
		return "", fmt.Errorf("%w: %q names the root directory", ErrInvalidPath, p)
	}
	return cleaned, nil
}

// Dir returns the directory part of a workspace path ("/" for top-level files)
func Dir(p string) string {
	return path.Dir(p)
}

// Base returns the last element of a workspace path
func Base(p string) string {
	return path.Base(p)
}

// Ext returns the extension of a workspace path including the dot
func Ext(p string) string {
	return path.Ext(p)
}
