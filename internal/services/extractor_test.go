package services

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeTempDocx(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.docx")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	ct, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	require.NoError(t, err)

	doc, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = doc.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return path
}

func TestExtractPlainText(t *testing.T) {
	path := writeTempFile(t, "cv.txt", "  Jane Doe  \n\n  Backend Engineer \n")
	extractor := NewTextExtractor(NewPDFParserService(), true)

	text, err := extractor.Extract(path, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nBackend Engineer", text)
}

func TestExtractDocx(t *testing.T) {
	path := writeTempDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Project Report</w:t></w:r></w:p>
    <w:p><w:r><w:t>Built a queue worker with retries.</w:t></w:r></w:p>
  </w:body>
</w:document>`)
	extractor := NewTextExtractor(NewPDFParserService(), true)

	text, err := extractor.Extract(path, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	require.NoError(t, err)
	assert.Equal(t, "Project Report\nBuilt a queue worker with retries.", text)
}

func TestExtractMissingFileStrict(t *testing.T) {
	extractor := NewTextExtractor(NewPDFParserService(), true)

	_, err := extractor.Extract(filepath.Join(t.TempDir(), "nope.txt"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestExtractMissingFileLenient(t *testing.T) {
	extractor := NewTextExtractor(NewPDFParserService(), false)

	text, err := extractor.Extract(filepath.Join(t.TempDir(), "nope.txt"), "")
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestExtractEmptyFileStrict(t *testing.T) {
	path := writeTempFile(t, "empty.txt", "")
	extractor := NewTextExtractor(NewPDFParserService(), true)

	_, err := extractor.Extract(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty file")
}

func TestExtractLegacyDocRejected(t *testing.T) {
	path := writeTempFile(t, "cv.doc", "binary-ish content")
	extractor := NewTextExtractor(NewPDFParserService(), true)

	_, err := extractor.Extract(path, "application/msword")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legacy .doc")
}

func TestCleanText(t *testing.T) {
	input := "  first line  \n\n\n second line\n   \nthird line   "
	assert.Equal(t, "first line\nsecond line\nthird line", CleanText(input))
	assert.Equal(t, "", CleanText("   \n  \n"))
}
