package extract

import (
	"path/filepath"
	"strings"
)

// Format identifies which extractor handles a file
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatText    Format = "text"
	FormatImage   Format = "image"
	FormatHTML    Format = "html"
	FormatEML     Format = "eml"
	FormatUnknown Format = "unknown"
)

var extensionFormats = map[string]Format{
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
	".txt":      FormatText,
	".md":       FormatText,
	".markdown": FormatText,
	".text":     FormatText,
	".png":      FormatImage,
	".jpg":      FormatImage,
	".jpeg":     FormatImage,
	".gif":      FormatImage,
	".webp":     FormatImage,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".eml":      FormatEML,
}

// DetectFormat maps a file to its extraction format. The normalized file
// extension decides first; the declared MIME type is the fallback for
// extension-less or unrecognized names. Unknown inputs map to FormatUnknown,
// never an error.
func DetectFormat(path string, mimeType string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if format, ok := extensionFormats[ext]; ok {
		return format
	}

	mime := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i]) // strip parameters like charset
	}

	switch {
	case mime == "application/pdf":
		return FormatPDF
	case mime == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return FormatDOCX
	case mime == "text/plain" || mime == "text/markdown":
		return FormatText
	case mime == "text/html" || mime == "application/xhtml+xml":
		return FormatHTML
	case mime == "message/rfc822":
		return FormatEML
	case strings.HasPrefix(mime, "image/"):
		return FormatImage
	}

	return FormatUnknown
}
