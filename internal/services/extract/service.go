// -----------------------------------------------------------------------
// Extractor Service - converts stored document files to plain text,
// dispatching to a per-format extractor by extension or MIME type
// -----------------------------------------------------------------------

package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// Service implements the ExtractorService interface
type Service struct {
	recognizer interfaces.TextRecognizer // nil when OCR is disabled
	ocrTimeout time.Duration
	tempDir    string
	logger     arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.ExtractorService = (*Service)(nil)

// NewService creates the text extractor. The recognizer may be nil, in
// which case image files are rejected as unsupported.
func NewService(recognizer interfaces.TextRecognizer, ocrTimeout time.Duration, logger arbor.ILogger) *Service {
	// Scratch space for PDF content extraction
	tempDir := filepath.Join(os.TempDir(), "colligo-extract")
	os.MkdirAll(tempDir, 0755)

	return &Service{
		recognizer: recognizer,
		ocrTimeout: ocrTimeout,
		tempDir:    tempDir,
		logger:     logger,
	}
}

// ExtractFile converts a file to plain text based on its detected format
func (s *Service) ExtractFile(ctx context.Context, path string, mimeType string) (string, error) {
	format := DetectFormat(path, mimeType)

	s.logger.Debug().
		Str("path", path).
		Str("format", string(format)).
		Msg("Extracting text from file")

	switch format {
	case FormatPDF:
		return s.extractPDF(path)
	case FormatDOCX:
		return s.extractDOCX(path)
	case FormatText:
		return s.extractText(path)
	case FormatHTML:
		return s.extractHTML(path)
	case FormatEML:
		return s.extractEML(path)
	case FormatImage:
		return s.extractImage(ctx, path)
	default:
		return "", fmt.Errorf("%w: %s", interfaces.ErrUnsupportedFormat, filepath.Ext(path))
	}
}
