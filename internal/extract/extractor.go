// Package extract turns uploaded artifacts and web pages into plain text.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/materialbox/internal/ocr"
)

// Strategy converts raw bytes of one format into text.
type Strategy func(ctx context.Context, data []byte) (string, error)

// Extractor dispatches on the filename suffix. The zero value treats every
// image as unrecognizable because no OCR engine is set.
type Extractor struct {
	OCR ocr.Recognizer
}

// ImageSuffixes lists the file suffixes routed to OCR.
var ImageSuffixes = []string{".png", ".jpg", ".jpeg", ".webp"}

func (e *Extractor) strategyFor(filename string) (string, Strategy) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return "pdf", pdfText
	case ".docx":
		return "docx", docxText
	}
	for _, s := range ImageSuffixes {
		if ext == s {
			return "image", e.imageText
		}
	}
	return "text", plainText
}

// Extract returns the text of an uploaded file. ok is false when the file
// could not be read at all; placeholder texts for images are returned with
// ok set. Extract never panics.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (text string, ok bool) {
	kind, strategy := e.strategyFor(filename)
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("kind", kind).Str("panic", fmt.Sprint(r)).Msg("extraction aborted")
			text, ok = "", false
		}
	}()
	out, err := strategy(ctx, data)
	if err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("extraction failed")
		return "", false
	}
	log.Debug().Str("kind", kind).Int("bytes", len(data)).Int("chars", len(out)).Msg("extracted")
	return out, true
}
