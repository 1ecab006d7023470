package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/hyperifyio/materialbox/internal/ocr"
)

type fakeOCR struct {
	frags []ocr.Fragment
	err   error
	calls int
}

func (f *fakeOCR) Recognize(context.Context, []byte) ([]ocr.Fragment, error) {
	f.calls++
	return f.frags, f.err
}

func (f *fakeOCR) Name() string { return "fake" }

type panicOCR struct{}

func (panicOCR) Recognize(context.Context, []byte) ([]ocr.Fragment, error) { panic("engine crashed") }
func (panicOCR) Name() string                                              { return "panic" }

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtract_DOCXParagraphs(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>第一段</w:t></w:r><w:r><w:t xml:space="preserve"> 续写</w:t></w:r></w:p>`+
			`<w:p></w:p>`+
			`<w:p><w:r><w:t>第二段</w:t></w:r></w:p>`)
	e := &Extractor{}
	got, ok := e.Extract(context.Background(), "Essay.DOCX", data)
	if !ok {
		t.Fatal("expected ok")
	}
	if got != "第一段 续写\n\n第二段\n" {
		t.Fatalf("got %q", got)
	}
}

func TestExtract_DOCXMissingBodyPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("other.xml"); err != nil {
		t.Fatal(err)
	}
	_ = zw.Close()
	if _, ok := (&Extractor{}).Extract(context.Background(), "a.docx", buf.Bytes()); ok {
		t.Fatal("expected no result for docx without document.xml")
	}
}

func TestExtract_CorruptPDFIsNoResult(t *testing.T) {
	got, ok := (&Extractor{}).Extract(context.Background(), "broken.pdf", []byte("%PDF-1.4 garbage"))
	if ok || got != "" {
		t.Fatalf("expected no result, got ok=%v text=%q", ok, got)
	}
}

func TestExtract_PDFPages(t *testing.T) {
	p := gofpdf.New("P", "mm", "A4", "")
	p.SetCompression(false)
	p.SetFont("Helvetica", "", 12)
	p.AddPage()
	p.Cell(40, 10, "Hello")
	p.AddPage()
	p.Cell(40, 10, "World")
	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		t.Fatal(err)
	}
	got, ok := (&Extractor{}).Extract(context.Background(), "two.pdf", buf.Bytes())
	if !ok {
		t.Fatal("expected ok")
	}
	if !strings.Contains(got, "Hello") || !strings.Contains(got, "World") {
		t.Fatalf("missing page text: %q", got)
	}
	if !strings.HasSuffix(got, "\n") || strings.Index(got, "Hello") > strings.Index(got, "World") {
		t.Fatalf("pages must be in order and newline-terminated: %q", got)
	}
}

func TestExtract_TextUTF8AndGBK(t *testing.T) {
	e := &Extractor{}
	got, ok := e.Extract(context.Background(), "notes.txt", []byte("你好，世界"))
	if !ok || got != "你好，世界" {
		t.Fatalf("utf8: ok=%v got=%q", ok, got)
	}
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("家国情怀")
	if err != nil {
		t.Fatal(err)
	}
	got, ok = e.Extract(context.Background(), "legacy.md", []byte(gbk))
	if !ok || got != "家国情怀" {
		t.Fatalf("gbk: ok=%v got=%q", ok, got)
	}
}

func TestExtract_UnknownSuffixIsText(t *testing.T) {
	got, ok := (&Extractor{}).Extract(context.Background(), "noext", []byte("plain"))
	if !ok || got != "plain" {
		t.Fatalf("ok=%v got=%q", ok, got)
	}
}

func TestExtract_ImagePlaceholders(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		ocr  ocr.Recognizer
		want string
	}{
		{"not installed", nil, OCRNotInstalledText},
		{"engine error", &fakeOCR{err: errors.New("boom")}, OCRFailedText},
		{"no fragments", &fakeOCR{}, NoTextDetectedText},
		{"blank fragments", &fakeOCR{frags: []ocr.Fragment{{Text: " "}}}, NoTextDetectedText},
		{"joined", &fakeOCR{frags: []ocr.Fragment{{Text: "第一行"}, {Text: "第二行"}}}, "第一行\n第二行"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := (&Extractor{OCR: tc.ocr}).Extract(ctx, "shot.JPG", []byte{0xff, 0xd8})
			if !ok || got != tc.want {
				t.Fatalf("ok=%v got=%q want=%q", ok, got, tc.want)
			}
		})
	}
}

func TestExtract_PanicIsRecovered(t *testing.T) {
	got, ok := (&Extractor{OCR: panicOCR{}}).Extract(context.Background(), "a.png", []byte{1})
	if ok || got != "" {
		t.Fatalf("expected no result after panic, got ok=%v text=%q", ok, got)
	}
}

func TestExtract_WebpRoutesToOCR(t *testing.T) {
	f := &fakeOCR{frags: []ocr.Fragment{{Text: "x"}}}
	if _, ok := (&Extractor{OCR: f}).Extract(context.Background(), "a.webp", []byte{1}); !ok || f.calls != 1 {
		t.Fatalf("expected one OCR call, got %d", f.calls)
	}
}

func TestOCRNotInstalledText_NamesEngines(t *testing.T) {
	for _, want := range []string{"Tesseract", "Google Cloud Vision"} {
		if !strings.Contains(OCRNotInstalledText, want) {
			t.Fatalf("placeholder %q does not name %s", OCRNotInstalledText, want)
		}
	}
}
