package extract

import (
	"fmt"

	"github.com/ternarybob/colligo/internal/common"
)

// extractText reads plain text and markdown files verbatim as UTF-8
func (s *Service) extractText(path string) (string, error) {
	data, err := common.ReadFileLimit(path, common.MaxFileSize)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}
