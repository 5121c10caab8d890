package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// extractEML parses an RFC 822 email file, keeping the subject line and
// every inline text/plain part. Attachments and HTML alternatives are
// skipped.
func (s *Service) extractEML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open email file: %w", err)
	}
	defer f.Close()

	mr, err := mail.CreateReader(f)
	if err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrCorruptFile, err)
	}

	var parts []string
	if subject, err := mr.Header.Subject(); err == nil && strings.TrimSpace(subject) != "" {
		parts = append(parts, "Subject: "+strings.TrimSpace(subject))
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", interfaces.ErrCorruptFile, err)
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if strings.HasPrefix(contentType, "text/plain") {
				b, err := io.ReadAll(p.Body)
				if err != nil {
					return "", fmt.Errorf("failed to read message body: %w", err)
				}
				if body := strings.TrimSpace(string(b)); body != "" {
					parts = append(parts, body)
				}
			}
		}
	}

	return strings.Join(parts, "\n\n"), nil
}
