package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// docxText returns each paragraph of the main document part followed by a
// newline. Empty paragraphs produce blank lines.
func docxText(_ context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			part = f
			break
		}
	}
	if part == nil {
		return "", errors.New("docx: missing " + docxBody)
	}
	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", docxBody, err)
	}
	defer rc.Close()
	return paragraphsFromXML(rc)
}

// paragraphsFromXML walks WordprocessingML tokens. Paragraphs nested inside
// text boxes are emitted as their own lines before the enclosing paragraph.
func paragraphsFromXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var out strings.Builder
	var stack []*strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", docxBody, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				stack = append(stack, &strings.Builder{})
			case "t":
				var v string
				if err := dec.DecodeElement(&v, &t); err != nil {
					return "", fmt.Errorf("parse %s: %w", docxBody, err)
				}
				if len(stack) > 0 {
					stack[len(stack)-1].WriteString(v)
				}
			case "tab":
				if len(stack) > 0 {
					stack[len(stack)-1].WriteString("\t")
				}
			case "br", "cr":
				if len(stack) > 0 {
					stack[len(stack)-1].WriteString("\n")
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				out.WriteString(p.String())
				out.WriteString("\n")
			}
		}
	}
	return out.String(), nil
}
