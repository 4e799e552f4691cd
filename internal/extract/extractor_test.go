package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtract_PlainText(t *testing.T) {
	e := NewExtractor()
	text, err := e.Extract([]byte("hello world"), "notes.txt")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q", text)
	}
}

func TestExtract_Markdown(t *testing.T) {
	e := NewExtractor()
	text, err := e.Extract([]byte("# Title\n\nBody."), "readme.md")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if !strings.Contains(text, "Body.") {
		t.Errorf("text = %q", text)
	}
}

func TestExtract_InvalidUTF8Replaced(t *testing.T) {
	e := NewExtractor()
	text, err := e.Extract([]byte{0x68, 0x69, 0xff, 0xfe}, "broken.txt")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if !strings.HasPrefix(text, "hi") {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(text, "�") {
		t.Error("invalid bytes should be replaced with the replacement character")
	}
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract([]byte("binary"), "archive.tar.gz")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtract_DOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	doc := `<w:document><w:body><w:p w:rsidR="0"><w:r><w:t>First part</w:t></w:r>` +
		`<w:r><w:t xml:space="preserve">second part</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	e := NewExtractor()
	text, err := e.Extract(buf.Bytes(), "report.docx")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if text != "First part second part" {
		t.Errorf("text = %q", text)
	}
}

func TestExtract_CorruptDOCX(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract([]byte("not a zip"), "report.docx"); err == nil {
		t.Error("expected error for corrupt docx")
	}
}

func TestExtract_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"name", "role"}); err != nil {
		t.Fatalf("set header row: %v", err)
	}
	// Row 2 left empty; it must not show up in the output.
	if err := f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Ada", "engineer"}); err != nil {
		t.Fatalf("set data row: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	e := NewExtractor()
	text, err := e.Extract(buf.Bytes(), "staff.xlsx")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	want := "name\trole\nAda\tengineer"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestExtract_CorruptXLSX(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract([]byte("not a workbook"), "staff.xlsx"); err == nil {
		t.Error("expected error for corrupt xlsx")
	}
}

func TestExtract_CorruptPDF(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract([]byte("%PDF-1.7 truncated"), "paper.pdf"); err == nil {
		t.Error("expected error for corrupt pdf")
	}
}

func TestSupported(t *testing.T) {
	e := NewExtractor()
	for _, name := range []string{"a.pdf", "b.docx", "c.xlsx", "d.txt", "e.md", "F.PDF"} {
		if !e.Supported(name) {
			t.Errorf("Supported(%q) = false", name)
		}
	}
	for _, name := range []string{"a.exe", "b.png", "noext"} {
		if e.Supported(name) {
			t.Errorf("Supported(%q) = true", name)
		}
	}
}
