package services

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// TextExtractor turns an uploaded file into plain text. PDF and DOCX get real
// parsers; everything else falls back to reading the file as text. In strict
// mode unreadable input is an error, otherwise it degrades to "".
type TextExtractor interface {
	Extract(path, mime string) (string, error)
}

type textExtractor struct {
	pdfParser PDFParserService
	strict    bool
}

func NewTextExtractor(pdfParser PDFParserService, strict bool) TextExtractor {
	return &textExtractor{
		pdfParser: pdfParser,
		strict:    strict,
	}
}

// Extract implements TextExtractor.
func (t *textExtractor) Extract(path, mime string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return t.failOrEmpty(fmt.Sprintf("file not found: %s", path))
	}
	if info.Size() == 0 {
		return t.failOrEmpty(fmt.Sprintf("empty file: %s", path))
	}

	mime = strings.ToLower(mime)
	ext := strings.ToLower(filepath.Ext(path))

	if looksLikePDF(mime, ext, path) {
		text, err := t.pdfParser.ExtractText(path)
		if err != nil {
			return t.failOrEmpty(err.Error())
		}
		return CleanText(text), nil
	}

	if looksLikeDocx(mime, ext, path) {
		text, err := extractDocxText(path)
		if err != nil {
			return t.failOrEmpty(err.Error())
		}
		return text, nil
	}

	if ext == ".doc" || strings.Contains(mime, "msword") {
		return t.failOrEmpty("legacy .doc not supported; upload DOCX/PDF/TXT")
	}

	// Fallback: plain text.
	data, err := os.ReadFile(path)
	if err != nil {
		return t.failOrEmpty(err.Error())
	}
	return CleanText(string(data)), nil
}

func (t *textExtractor) failOrEmpty(message string) (string, error) {
	if t.strict {
		return "", fmt.Errorf("text extraction failed: %s", message)
	}

	log.Printf("⚠️  Text extraction fallback: %s\n", message)
	return "", nil
}

func looksLikePDF(mime, ext, path string) bool {
	if ext == ".pdf" || strings.Contains(mime, "pdf") {
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	sig := make([]byte, 4)
	if _, err := f.Read(sig); err != nil {
		return false
	}
	return string(sig) == "%PDF"
}

func looksLikeDocx(mime, ext, path string) bool {
	if ext == ".docx" {
		return true
	}
	if strings.Contains(mime, "wordprocessingml") {
		return true
	}

	// A DOCX is a zip with a well-known structure.
	return zipHas(path, "[Content_Types].xml") && zipHas(path, "word/document.xml")
}

func zipHas(path, member string) bool {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == member {
			return true
		}
	}
	return false
}

// extractDocxText pulls the visible text runs out of the main document part,
// falling back to headers and footers when the body carries nothing.
func extractDocxText(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer r.Close()

	members := []string{
		"word/document.xml",
		"word/header1.xml", "word/header2.xml",
		"word/footer1.xml", "word/footer2.xml",
	}

	for _, member := range members {
		text := docxMemberText(&r.Reader, member)
		if text != "" {
			return text, nil
		}
	}

	return "", fmt.Errorf("docx has no readable content")
}

func docxMemberText(r *zip.Reader, member string) string {
	for _, f := range r.File {
		if f.Name != member {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return ""
		}
		defer rc.Close()

		decoder := xml.NewDecoder(rc)
		var builder strings.Builder

		for {
			token, err := decoder.Token()
			if err != nil {
				break
			}

			switch tok := token.(type) {
			case xml.StartElement:
				// <w:t> holds the visible text runs.
				if tok.Name.Local == "t" {
					var run string
					if err := decoder.DecodeElement(&run, &tok); err == nil {
						builder.WriteString(run)
					}
				}
			case xml.EndElement:
				if tok.Name.Local == "p" {
					builder.WriteString("\n")
				}
			}
		}

		return CleanText(builder.String())
	}

	return ""
}
