// Package filetype decides whether a file is an accepted document type.
package filetype

import (
	"bytes"
	"path/filepath"
	"strings"
)

const (
	PDF  = "application/pdf"
	DOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
	// word/ is the part directory every DOCX package carries.
	docxMarker = []byte("word/")
)

// IsAllowedContentType checks if a declared MIME type is PDF or DOCX.
func IsAllowedContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct == PDF || ct == DOCX
}

// IsAllowedName checks if a file name has a .pdf or .docx extension.
func IsAllowedName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".docx":
		return true
	default:
		return false
	}
}

// Allowed accepts a file when either its extension or its declared MIME type
// is PDF or DOCX.
func Allowed(name, contentType string) bool {
	return IsAllowedName(name) || IsAllowedContentType(contentType)
}

// Sniff returns the MIME type implied by the leading bytes of data, or "" if
// it is neither a PDF nor a DOCX.
func Sniff(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return PDF
	case bytes.HasPrefix(data, zipMagic) && bytes.Contains(data, docxMarker):
		return DOCX
	default:
		return ""
	}
}

// ContentType picks the MIME type to declare for a file: the sniffed type when
// recognised, otherwise the one implied by the extension.
func ContentType(name string, data []byte) string {
	if ct := Sniff(data); ct != "" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return PDF
	case ".docx":
		return DOCX
	default:
		return "application/octet-stream"
	}
}
