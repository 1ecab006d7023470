// Package export renders material cards as PDF files.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/hyperifyio/materialbox/internal/store"
)

// Options controls PDF rendering.
type Options struct {
	// FontPath points at a UTF-8 TrueType font. Without it the core
	// Helvetica font is used, labels are English and documents containing
	// characters outside cp1252 are rejected with ErrFontRequired.
	FontPath string
}

// ErrFontRequired is returned when a document cannot be drawn with the core
// font and no UTF-8 font is configured.
var ErrFontRequired = errors.New("document needs a UTF-8 font; configure a TrueType font path")

const fontFamily = "card"

type labels struct{ category, themes, tags, date, sep string }

var (
	cjkLabels   = labels{"类型: ", "主题: ", "标签: ", "日期: ", "、"}
	latinLabels = labels{"Type: ", "Themes: ", "Tags: ", "Date: ", ", "}
)

// cp1252 reports whether every string is representable in the core fonts.
func cp1252(parts ...string) bool {
	enc := charmap.Windows1252.NewEncoder()
	for _, p := range parts {
		if _, err := enc.String(p); err != nil {
			return false
		}
	}
	return true
}

// WritePDF renders doc as a one-card PDF into w.
func WritePDF(w io.Writer, doc store.Document, opts Options) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Helvetica"
	lb := latinLabels
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath == "" {
		fields := append([]string{doc.Content, doc.Summary, doc.Category}, doc.Themes...)
		if !cp1252(append(fields, doc.Tags...)...) {
			return ErrFontRequired
		}
	} else {
		lb = cjkLabels
		pdf.AddUTF8Font(fontFamily, "", opts.FontPath)
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("load font: %w", err)
		}
		family = fontFamily
		tr = func(s string) string { return s }
	}
	pdf.SetTitle(tr(doc.Summary), opts.FontPath != "")
	pdf.AddPage()

	pdf.SetFont(family, "", 16)
	pdf.MultiCell(0, 8, tr(doc.Summary), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont(family, "", 10)
	meta := []string{
		lb.category + doc.Category,
		lb.themes + strings.Join(doc.Themes, lb.sep),
		lb.tags + strings.Join(doc.Tags, lb.sep),
		lb.date + doc.Date(),
	}
	for _, m := range meta {
		pdf.CellFormat(0, 6, tr(m), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(family, "", 12)
	sc := bufio.NewScanner(strings.NewReader(doc.Content))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t")
		if line == "" {
			pdf.Ln(4)
			continue
		}
		pdf.MultiCell(0, 6, tr(line), "", "L", false)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	return pdf.Output(w)
}
