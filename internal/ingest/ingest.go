// Package ingest runs the upload pipeline: extract, normalize, filter and
// persist.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/materialbox/internal/material"
)

// MinContentRunes is the shortest record content that is persisted.
const MinContentRunes = 5

// maxLinkBytes bounds text that is auto-detected as a link.
const maxLinkBytes = 500

// ErrNothingExtracted is returned when an upload yields no text.
var ErrNothingExtracted = errors.New("解析失败或内容为空")

// Extractor reads uploaded files.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, bool)
}

// URLReader reads web pages.
type URLReader interface {
	Read(ctx context.Context, url string) string
}

// Normalizer splits text into records.
type Normalizer interface {
	ClassifyAndSplit(ctx context.Context, text string) []material.Record
}

// Store persists records.
type Store interface {
	Create(ctx context.Context, content string, rec material.Record) (int64, error)
}

// Result lists the ids saved by one upload.
type Result struct {
	IDs   []int64
	Count int
}

// Service wires the pipeline stages.
type Service struct {
	Extractor  Extractor
	URLs       URLReader
	Normalizer Normalizer
	Store      Store
}

// UploadFile extracts text from an uploaded file and saves its records.
func (s *Service) UploadFile(ctx context.Context, filename string, data []byte) (Result, error) {
	text, ok := s.Extractor.Extract(ctx, filename, data)
	if !ok || text == "" {
		log.Info().Str("file", filename).Msg("upload: nothing extracted")
		return Result{}, ErrNothingExtracted
	}
	return s.save(ctx, text)
}

// IsLink reports whether pasted text should be fetched as a URL.
func IsLink(text, kind string) bool {
	return kind == "link" || (strings.HasPrefix(text, "http") && len(text) < maxLinkBytes)
}

// UploadText saves records from pasted text. Links are fetched first and
// the page text replaces the link when non-empty.
func (s *Service) UploadText(ctx context.Context, text, kind string) (Result, error) {
	if IsLink(text, kind) && s.URLs != nil {
		if page := s.URLs.Read(ctx, strings.TrimSpace(text)); page != "" {
			text = page
		}
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrNothingExtracted
	}
	return s.save(ctx, text)
}

func (s *Service) save(ctx context.Context, text string) (Result, error) {
	recs := s.Normalizer.ClassifyAndSplit(ctx, text)
	res := Result{IDs: []int64{}}
	for i, rec := range recs {
		if utf8.RuneCountInString(rec.Content) < MinContentRunes {
			log.Debug().Int("record", i).Msg("upload: record too short, skipped")
			continue
		}
		id, err := s.Store.Create(ctx, rec.Content, rec)
		if err != nil {
			return res, fmt.Errorf("save record %d: %w", i, err)
		}
		res.IDs = append(res.IDs, id)
	}
	res.Count = len(res.IDs)
	log.Info().Int("records", len(recs)).Int("saved", res.Count).Msg("upload processed")
	return res, nil
}
