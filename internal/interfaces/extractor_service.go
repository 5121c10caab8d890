package interfaces

import (
	"context"
)

// ExtractorService converts stored files to plain text. The declared MIME
// type is a fallback hint used when the file extension is not recognized;
// pass an empty string when none is known.
type ExtractorService interface {
	ExtractFile(ctx context.Context, path string, mimeType string) (string, error)
}
