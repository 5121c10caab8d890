package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

var imageMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// extractImage recognizes text in an image via the configured OCR
// recognizer, bounded by the OCR timeout
func (s *Service) extractImage(ctx context.Context, path string) (string, error) {
	if s.recognizer == nil {
		return "", fmt.Errorf("%w: image ingestion requires OCR to be enabled", interfaces.ErrUnsupportedFormat)
	}

	data, err := common.ReadFileLimit(path, common.MaxFileSize)
	if err != nil {
		return "", fmt.Errorf("failed to read image file: %w", err)
	}

	mimeType := imageMimeTypes[strings.ToLower(filepath.Ext(path))]
	if mimeType == "" {
		mimeType = "image/png"
	}

	if s.ocrTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ocrTimeout)
		defer cancel()
	}

	text, err := s.recognizer.RecognizeText(ctx, data, mimeType)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", interfaces.ErrExtractionTimeout, s.ocrTimeout)
		}
		return "", fmt.Errorf("text recognition failed: %w", err)
	}

	s.logger.Debug().
		Str("path", path).
		Str("mime_type", mimeType).
		Int("chars", len(text)).
		Msg("Recognized text in image")

	return text, nil
}
