package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// Store keeps original document files on disk, one directory per document
// under the configured base directory. The stored copy is always named
// original.<ext> so deletes never depend on the source filename.
type Store struct {
	baseDir string
	logger  arbor.ILogger
}

// NewStore creates a file store rooted at baseDir, creating it if needed
func NewStore(baseDir string, logger arbor.ILogger) (interfaces.FileStorage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("documents directory is required")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create documents directory: %w", err)
	}

	return &Store{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// Store copies the source file into the document's directory and returns
// the stored path
func (s *Store) Store(documentID, sourcePath, fileType string) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("document ID is required")
	}

	dir := s.DocumentDir(documentID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create document directory: %w", err)
	}

	name := "original"
	if ext := strings.TrimPrefix(fileType, "."); ext != "" {
		name = "original." + ext
	}
	dst := filepath.Join(dir, name)

	written, err := common.CopyFile(sourcePath, dst)
	if err != nil {
		return "", fmt.Errorf("failed to store document file: %w", err)
	}

	s.logger.Debug().
		Str("document_id", documentID).
		Str("path", dst).
		Int64("bytes", written).
		Msg("Stored original document file")

	return dst, nil
}

// Delete removes the document's directory and everything in it. Deleting a
// document that has no directory is a no-op.
func (s *Store) Delete(documentID string) error {
	if documentID == "" {
		return fmt.Errorf("document ID is required")
	}

	dir := s.DocumentDir(documentID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete document directory: %w", err)
	}
	return nil
}

// DocumentDir returns the directory a document's files live in
func (s *Store) DocumentDir(documentID string) string {
	return filepath.Join(s.baseDir, documentID)
}
