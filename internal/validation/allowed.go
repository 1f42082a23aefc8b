package validation

import "strings"

// fileType pairs a file extension with the MIME type it must declare.
type fileType struct {
	extension   string
	contentType string
}

// allowedFileTypes is the fixed upload allow-list. Both the extension and
// the declared MIME type must match one entry. Ambiguous MIME types appear
// once per extension (image/jpeg covers both .jpg and .jpeg).
var allowedFileTypes = []fileType{
	// documents
	{"pdf", "application/pdf"},
	{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	{"pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
	{"odt", "application/vnd.oasis.opendocument.text"},
	{"rtf", "application/rtf"},

	// images
	{"jpg", "image/jpeg"},
	{"jpeg", "image/jpeg"},
	{"png", "image/png"},
	{"gif", "image/gif"},
	{"webp", "image/webp"},
	{"svg", "image/svg+xml"},
	{"bmp", "image/bmp"},
	{"ico", "image/x-icon"},

	// video
	{"mp4", "video/mp4"},
	{"webm", "video/webm"},

	// audio
	{"mp3", "audio/mpeg"},
	{"wav", "audio/wav"},
	{"ogg", "audio/ogg"},

	// archives
	{"zip", "application/zip"},
	{"rar", "application/x-rar-compressed"},
	{"7z", "application/x-7z-compressed"},

	// text / code
	{"txt", "text/plain"},
	{"csv", "text/csv"},
	{"json", "application/json"},
	{"xml", "application/xml"},
	{"md", "text/markdown"},
}

// isAllowed reports whether the extension plus declared MIME type pair is
// a member of the allow-list.
func isAllowed(extension, contentType string) bool {
	for _, ft := range allowedFileTypes {
		if strings.EqualFold(ft.extension, extension) && strings.EqualFold(ft.contentType, contentType) {
			return true
		}
	}
	return false
}
