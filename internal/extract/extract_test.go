package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestFileType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"notes.txt", "txt"},
		{"Report.DOCX", "docx"},
		{"/tmp/paper.pdf", "pdf"},
		{"archive.tar.gz", "gz"},
		{"README", ""},
	}
	for _, tt := range tests {
		if got := FileType(tt.filename); got != tt.want {
			t.Errorf("FileType(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestSupported(t *testing.T) {
	r := NewRegistry(nil)
	for _, ft := range []string{"txt", "docx", "pdf", ".PDF", " TXT "} {
		if !r.Supported(ft) {
			t.Errorf("Supported(%q) = false", ft)
		}
	}
	for _, ft := range []string{"", "doc", "rtf", "odt"} {
		if r.Supported(ft) {
			t.Errorf("Supported(%q) = true", ft)
		}
	}
	if got := strings.Join(r.Types(), ","); got != "docx,pdf,txt" {
		t.Errorf("Types() = %s", got)
	}
}

func TestExtractTxt(t *testing.T) {
	r := NewRegistry(nil)

	tests := []struct {
		name   string
		input  []byte
		want   string
		wantOK bool
	}{
		{"plain", []byte("Hello, world"), "Hello, world", true},
		{"unicode", []byte("வணக்கம் உலகம்"), "வணக்கம் உலகம்", true},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "hi"...), "hi", true},
		{"utf16le bom", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi", true},
		{"utf16be bom", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "hi", true},
		{"invalid utf8", []byte{'a', 0xFF, 'b'}, "", false},
		{"empty", []byte{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Extract(bytes.NewReader(tt.input), "txt")
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Extract() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractUnsupported(t *testing.T) {
	r := NewRegistry(nil)
	got, ok := r.Extract(strings.NewReader("data"), "rtf")
	if ok || got != "" {
		t.Errorf("Extract(rtf) = (%q, %v), want (\"\", false)", got, ok)
	}
}

func TestExtractTooLarge(t *testing.T) {
	r := NewRegistry(nil)
	big := bytes.Repeat([]byte("a"), MaxFileSize+1)
	if _, ok := r.Extract(bytes.NewReader(big), "txt"); ok {
		t.Error("expected oversized upload to fail")
	}
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First </w:t></w:r><w:r><w:t>paragraph</w:t></w:r></w:p>
    <w:p></w:p>
    <w:tbl><w:tr><w:tc><w:p><w:r><w:t>In a table</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
    <w:p><w:r><w:t>Second</w:t><w:tab/><w:t>line</w:t></w:r></w:p>
    <w:sectPr/>
  </w:body>
</w:document>`

func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractDocx(t *testing.T) {
	r := NewRegistry(nil)
	data := buildDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML,
	})

	got, ok := r.Extract(bytes.NewReader(data), "docx")
	if !ok {
		t.Fatal("Extract(docx) failed")
	}
	want := "First paragraph\n\nSecond\tline"
	if got != want {
		t.Errorf("Extract(docx) = %q, want %q", got, want)
	}
}

func TestExtractDocxInvalid(t *testing.T) {
	r := NewRegistry(nil)

	if _, ok := r.Extract(strings.NewReader("not a zip"), "docx"); ok {
		t.Error("expected failure for non-zip input")
	}

	noBody := buildDocx(t, map[string]string{"word/styles.xml": "<styles/>"})
	if _, ok := r.Extract(bytes.NewReader(noBody), "docx"); ok {
		t.Error("expected failure for archive without document.xml")
	}

	broken := buildDocx(t, map[string]string{"word/document.xml": "<w:document><w:body><w:p>"})
	if _, ok := r.Extract(bytes.NewReader(broken), "docx"); ok {
		t.Error("expected failure for truncated XML")
	}
}

// buildPDF writes a one-page PDF showing text in Helvetica with a correct
// cross-reference table.
func buildPDF(text string) []byte {
	stream := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractPDF(t *testing.T) {
	r := NewRegistry(nil)
	got, ok := r.Extract(bytes.NewReader(buildPDF("Hello PDF")), "pdf")
	if !ok {
		t.Fatal("Extract(pdf) failed")
	}
	if !strings.Contains(got, "Hello PDF") {
		t.Errorf("Extract(pdf) = %q, want it to contain %q", got, "Hello PDF")
	}
}

func TestExtractPDFInvalid(t *testing.T) {
	r := NewRegistry(nil)
	if got, ok := r.Extract(strings.NewReader("%PDF-1.4 garbage"), "pdf"); ok || got != "" {
		t.Errorf("Extract(garbage pdf) = (%q, %v), want (\"\", false)", got, ok)
	}
}
