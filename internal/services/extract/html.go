package extract

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/colligo/internal/common"
)

// extractHTML converts an HTML file to markdown text. When conversion
// fails or produces empty output, a tag-stripping fallback keeps the raw
// text rather than failing the document.
func (s *Service) extractHTML(path string) (string, error) {
	data, err := common.ReadFileLimit(path, common.MaxFileSize)
	if err != nil {
		return "", fmt.Errorf("failed to read html file: %w", err)
	}
	html := string(data)
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	converter := md.NewConverter("", true, nil)
	converted, err := converter.ConvertString(html)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("HTML to markdown conversion failed, using fallback")
		return stripHTMLTags(html), nil
	}

	if strings.TrimSpace(converted) == "" {
		s.logger.Warn().Str("path", path).Msg("HTML to markdown conversion produced empty output, applying fallback")
		return stripHTMLTags(html), nil
	}

	return converted, nil
}

var (
	scriptStylePattern = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// stripHTMLTags removes markup for fallback cases
func stripHTMLTags(htmlStr string) string {
	stripped := scriptStylePattern.ReplaceAllString(htmlStr, " ")
	stripped = htmlTagPattern.ReplaceAllString(stripped, " ")
	cleaned := whitespacePattern.ReplaceAllString(stripped, " ")

	// Decode HTML entities (basic set)
	cleaned = strings.ReplaceAll(cleaned, "&amp;", "&")
	cleaned = strings.ReplaceAll(cleaned, "&lt;", "<")
	cleaned = strings.ReplaceAll(cleaned, "&gt;", ">")
	cleaned = strings.ReplaceAll(cleaned, "&quot;", "\"")
	cleaned = strings.ReplaceAll(cleaned, "&#39;", "'")
	cleaned = strings.ReplaceAll(cleaned, "&nbsp;", " ")

	return strings.TrimSpace(cleaned)
}
