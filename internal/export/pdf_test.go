package export

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperifyio/materialbox/internal/store"
)

func TestWritePDF_CoreFont(t *testing.T) {
	var buf bytes.Buffer
	doc := store.Document{
		ID:        1,
		Content:   "First paragraph.\n\nSecond paragraph.",
		Summary:   "First paragraph....",
		Category:  "essay",
		Themes:    []string{"youth"},
		Tags:      []string{"café"},
		CreatedAt: "2024-01-02 03:04:05",
	}
	if err := WritePDF(&buf, doc, Options{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestWritePDF_CJKWithoutFont(t *testing.T) {
	var buf bytes.Buffer
	doc := store.Document{Content: "天行健，君子以自强不息。", Category: "名言金句"}
	err := WritePDF(&buf, doc, Options{})
	if !errors.Is(err, ErrFontRequired) {
		t.Fatalf("expected ErrFontRequired, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing must be written on error")
	}
}

func TestWritePDF_CJKInTagsOnly(t *testing.T) {
	var buf bytes.Buffer
	doc := store.Document{Content: "plain", Tags: []string{"标签"}}
	if err := WritePDF(&buf, doc, Options{}); !errors.Is(err, ErrFontRequired) {
		t.Fatalf("expected ErrFontRequired, got %v", err)
	}
}

func TestWritePDF_MissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := WritePDF(&buf, store.Document{Content: "x"}, Options{FontPath: filepath.Join(t.TempDir(), "missing.ttf")})
	if err == nil {
		t.Fatal("expected error for missing font file")
	}
}
