package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// extractPDF extracts text content from a PDF in page order. pdfcpu has no
// direct text extraction, so page content streams are extracted to scratch
// files and concatenated.
func (s *Service) extractPDF(path string) (string, error) {
	conf := model.NewDefaultConfiguration()

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrCorruptFile, err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp(s.tempDir, "pages_")
	if err != nil {
		return "", fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrCorruptFile, err)
	}

	// Collect per-page content files keyed by page number
	files, _ := os.ReadDir(outDir)
	pageTexts := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		} else if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	// Concatenate in document order
	var fullText strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text, ok := pageTexts[pageNum]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		if fullText.Len() > 0 {
			fullText.WriteString("\n\n")
		}
		fullText.WriteString(text)
	}

	s.logger.Debug().
		Str("path", path).
		Int("page_count", pageCount).
		Int("chars", fullText.Len()).
		Msg("Extracted PDF text")

	return fullText.String(), nil
}
