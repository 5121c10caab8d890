package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/colligo/internal/interfaces"
)

// DOCX files are zip archives; the document body lives in word/document.xml
// as paragraphs of text runs.
type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []docxText `xml:"t"`
}

type docxText struct {
	Value string `xml:",chardata"`
}

// extractDOCX pulls paragraph text out of a DOCX archive, joining
// paragraphs with blank lines so downstream chunking sees real boundaries
func (s *Service) extractDOCX(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrCorruptFile, err)
	}
	defer reader.Close()

	var documentFile *zip.File
	for _, file := range reader.File {
		if file.Name == "word/document.xml" {
			documentFile = file
			break
		}
	}
	if documentFile == nil {
		return "", fmt.Errorf("%w: missing word/document.xml", interfaces.ErrCorruptFile)
	}

	rc, err := documentFile.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrCorruptFile, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrCorruptFile, err)
	}

	var document docxDocument
	if err := xml.Unmarshal(data, &document); err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrCorruptFile, err)
	}

	var builder strings.Builder
	for _, paragraph := range document.Body.Paragraphs {
		var line strings.Builder
		for _, run := range paragraph.Runs {
			for _, text := range run.Texts {
				line.WriteString(text.Value)
			}
		}
		if strings.TrimSpace(line.String()) == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(line.String())
	}

	return builder.String(), nil
}
