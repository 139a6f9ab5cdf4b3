package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Ivan Petrov</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Skills: </w:t></w:r><w:r><w:t>Go, PostgreSQL</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>Опыт</w:t><w:tab/><w:t>работы</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDocx(t *testing.T, document string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml":            document,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "pdf", want: KindPDF},
		{in: "PDF", want: KindPDF},
		{in: "cv.docx", want: KindDOCX},
		{in: ".txt", want: KindText},
		{in: "application/pdf", want: KindPDF},
		{in: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", want: KindDOCX},
		{in: "doc", wantErr: true},
		{in: "resume.odt", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_Docx(t *testing.T) {
	e := New(zap.NewNop())

	text, err := e.Extract(context.Background(), buildDocx(t, documentXML), KindDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Ivan Petrov\nSkills: Go, PostgreSQL\n\nОпыт\tработы", text)
}

func TestParagraphsText_TextBoxes(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want string
	}{
		{
			name: "text box inside a paragraph",
			xml: `<w:document xmlns:w="w"><w:body>
<w:p><w:r><w:t>Ivan Petrov</w:t></w:r><w:r><w:txbxContent><w:p><w:r><w:t>Skills: Go</w:t></w:r></w:p></w:txbxContent></w:r><w:r><w:t xml:space="preserve"> Senior engineer</w:t></w:r></w:p>
<w:p><w:r><w:t>Experience</w:t></w:r></w:p>
</w:body></w:document>`,
			want: "Ivan Petrov Senior engineer\nSkills: Go\nExperience",
		},
		{
			name: "alternate content keeps one copy",
			xml: `<w:document xmlns:w="w" xmlns:mc="mc"><w:body>
<w:p><w:r><w:t>Name</w:t></w:r><w:r><mc:AlternateContent>
<mc:Choice Requires="wps"><w:txbxContent><w:p><w:r><w:t>a@b.com</w:t></w:r></w:p></w:txbxContent></mc:Choice>
<mc:Fallback><w:txbxContent><w:p><w:r><w:t>a@b.com</w:t></w:r></w:p></w:txbxContent></mc:Fallback>
</mc:AlternateContent></w:r></w:p>
<w:p><w:r><w:t>Experience</w:t></w:r></w:p>
</w:body></w:document>`,
			want: "Name\na@b.com\nExperience",
		},
		{
			name: "text box nested in a text box",
			xml: `<w:document xmlns:w="w"><w:body>
<w:p><w:r><w:t>A</w:t></w:r><w:r><w:txbxContent><w:p><w:r><w:t>B</w:t></w:r><w:r><w:txbxContent><w:p><w:r><w:t>C</w:t></w:r></w:p></w:txbxContent></w:r></w:p><w:p><w:r><w:t>D</w:t></w:r></w:p></w:txbxContent></w:r></w:p>
</w:body></w:document>`,
			want: "A\nB\nC\nD",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := paragraphsText(tt.xml)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_DocxTextBox(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006">
  <w:body>
    <w:p><w:r><w:t>Ivan Petrov</w:t></w:r><w:r><mc:AlternateContent>
      <mc:Choice Requires="wps"><w:txbxContent><w:p><w:r><w:t>ivan@example.com</w:t></w:r></w:p></w:txbxContent></mc:Choice>
      <mc:Fallback><w:txbxContent><w:p><w:r><w:t>ivan@example.com</w:t></w:r></w:p></w:txbxContent></mc:Fallback>
    </mc:AlternateContent></w:r></w:p>
  </w:body>
</w:document>`

	text, err := New(zap.NewNop()).Extract(context.Background(), buildDocx(t, doc), KindDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Ivan Petrov\nivan@example.com", text)
}

func TestExtract_DocxCorrupt(t *testing.T) {
	e := New(zap.NewNop())

	_, err := e.Extract(context.Background(), []byte("not a zip"), KindDOCX)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailed)

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, KindDOCX, extErr.Kind)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestExtract_Text(t *testing.T) {
	e := New(zap.NewNop())

	text, err := e.Extract(context.Background(), []byte("  Go developer\n\n"), KindText)
	require.NoError(t, err)
	assert.Equal(t, "Go developer", text)

	text, err = e.Extract(context.Background(), []byte(" \n\t "), KindText)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtract_Unsupported(t *testing.T) {
	e := New(zap.NewNop())

	_, err := e.Extract(context.Background(), []byte("x"), Kind("doc"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.NotErrorIs(t, err, ErrExtractionFailed)
}

func TestExtract_PDFFallback(t *testing.T) {
	errPrimary := errors.New("bad xref")
	errSecondary := errors.New("pdftotext not installed")

	tests := []struct {
		name        string
		primary     pdfMethod
		secondary   pdfMethod
		want        string
		wantErr     bool
		secondaryOn bool
	}{
		{
			name:      "primary has text",
			primary:   func(context.Context, []byte) (string, error) { return " Go developer ", nil },
			secondary: func(context.Context, []byte) (string, error) { t.Fatal("secondary must not run"); return "", nil },
			want:      "Go developer",
		},
		{
			name:        "primary blank falls back",
			primary:     func(context.Context, []byte) (string, error) { return " \n ", nil },
			secondary:   func(context.Context, []byte) (string, error) { return "from pdftotext\n", nil },
			want:        "from pdftotext",
			secondaryOn: true,
		},
		{
			name:        "primary error falls back",
			primary:     func(context.Context, []byte) (string, error) { return "", errPrimary },
			secondary:   func(context.Context, []byte) (string, error) { return "recovered", nil },
			want:        "recovered",
			secondaryOn: true,
		},
		{
			name:        "both fail",
			primary:     func(context.Context, []byte) (string, error) { return "", errPrimary },
			secondary:   func(context.Context, []byte) (string, error) { return "", errSecondary },
			wantErr:     true,
			secondaryOn: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(zap.NewNop())
			called := false
			e.primary = tt.primary
			e.secondary = func(ctx context.Context, data []byte) (string, error) {
				called = true
				return tt.secondary(ctx, data)
			}

			text, err := e.Extract(context.Background(), []byte("%PDF-1.4"), KindPDF)
			assert.Equal(t, tt.secondaryOn, called)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrExtractionFailed)
				assert.ErrorIs(t, err, errPrimary)
				assert.ErrorIs(t, err, errSecondary)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestReadPDFText_Garbage(t *testing.T) {
	_, err := readPDFText(context.Background(), []byte("definitely not a pdf"))
	require.Error(t, err)
}

func TestRunPdftotext_MissingBinary(t *testing.T) {
	e := New(zap.NewNop(), WithPdftotext("pdftotext-does-not-exist"))

	_, err := e.runPdftotext(context.Background(), []byte("%PDF-1.4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not installed")
}

func TestExtract_PdftotextTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a shell script")
	}
	script := filepath.Join(t.TempDir(), "slow-pdftotext")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexec sleep 10\n"), 0o755))

	e := New(zap.NewNop(), WithPdftotext(script), WithTimeout(200*time.Millisecond))

	start := time.Now()
	_, err := e.Extract(context.Background(), []byte("not a pdf"), KindPDF)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 5*time.Second)
}
