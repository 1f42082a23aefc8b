package validation

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// detectContentType returns the MIME type derived from the file's magic
// bytes, normalized to type/subtype form.
func detectContentType(data []byte) string {
	return normalizeContentType(mimetype.Detect(data).String())
}

// matchesDeclared compares the sniffed type of data against the declared
// MIME type after normalizing both. The filename plays no part here; only
// the content signature counts.
func matchesDeclared(data []byte, declaredType string) bool {
	declared := normalizeContentType(declaredType)
	if declared == "" {
		return false
	}
	return mimetype.Detect(data).Is(declared)
}

// normalizeContentType reduces a MIME type to lower-case type/subtype,
// stripping parameters such as charset.
func normalizeContentType(contentType string) string {
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return parsed
}
