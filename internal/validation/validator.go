// Package validation decides whether an uploaded file may enter the system.
// A file passes two stages: its extension and declared MIME type must form
// an allow-listed pair, and its magic bytes must agree with the declaration.
package validation

import (
	"fmt"
	"strings"

	"filevault-backend/internal/shared/util"
)

// Error is a policy rejection of an upload. It never wraps an
// infrastructure cause.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

// Validate runs the structural checks in order and stops at the first
// failure, then confirms the content signature matches the declared type.
func Validate(data []byte, fileName, contentType string) error {
	if len(data) == 0 {
		return &Error{Reason: "file is empty"}
	}
	if strings.TrimSpace(fileName) == "" {
		return &Error{Reason: "file name is missing"}
	}
	ext := util.FileExtension(fileName)
	if ext == "" {
		return &Error{Reason: fmt.Sprintf("file %q has no extension", fileName)}
	}
	declared := normalizeContentType(contentType)
	if declared == "" {
		return &Error{Reason: fmt.Sprintf("file %q has no content type", fileName)}
	}
	if !isAllowed(ext, declared) {
		return &Error{Reason: fmt.Sprintf("file type .%s with content type %s is not allowed", ext, declared)}
	}
	if !matchesDeclared(data, declared) {
		return &Error{Reason: fmt.Sprintf("file content does not match the declared .%s type", ext)}
	}
	return nil
}
