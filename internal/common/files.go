package common

import (
	"fmt"
	"io"
	"os"
)

// MaxFileSize is the ingestion ceiling for source files. Larger files are
// rejected before any record is created.
const MaxFileSize = 50 * 1024 * 1024 // 50 MB

// ReadFileLimit reads at most limit bytes from a file. Files larger than
// the limit are truncated, not rejected; callers enforce their own ceilings.
func ReadFileLimit(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// CopyFile copies src to dst, creating or truncating dst
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, in)
	if err != nil {
		return 0, fmt.Errorf("failed to copy file contents: %w", err)
	}
	return written, nil
}
