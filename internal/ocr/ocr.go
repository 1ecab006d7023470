// Package ocr wraps the text recognition engines used for image uploads.
//
// An engine is selected once at startup. When none is available New returns
// a nil Recognizer and callers report recognition as not installed.
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Fragment is one recognized piece of text, in engine order.
type Fragment struct {
	Text       string
	Confidence float64
}

// Recognizer turns encoded image bytes into text fragments.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ([]Fragment, error)
	Name() string
}

// Options selects and configures an engine.
type Options struct {
	// Engine is one of auto, tesseract, vision or none.
	Engine string
	// TesseractPath overrides the binary looked up on PATH.
	TesseractPath string
	// TesseractLang is passed to -l. Defaults to chi_sim+eng.
	TesseractLang string
	// VisionCredentials is a service-account file path or inline JSON.
	// Empty means application default credentials.
	VisionCredentials string
}

// New builds the configured engine. An unavailable engine is not an error:
// it logs the reason and returns nil. An explicitly requested engine that
// fails to initialize is also logged and treated as unavailable.
func New(ctx context.Context, opts Options) (Recognizer, error) {
	engine := strings.ToLower(strings.TrimSpace(opts.Engine))
	switch engine {
	case "", "auto":
		if r, err := NewTesseract(opts.TesseractPath, opts.TesseractLang); err == nil {
			return r, nil
		}
		if strings.TrimSpace(opts.VisionCredentials) != "" {
			if r, err := NewVision(ctx, opts.VisionCredentials); err == nil {
				return r, nil
			} else {
				log.Warn().Err(err).Msg("ocr: vision unavailable")
			}
		}
		log.Warn().Msg("ocr: no engine available, image uploads will return a placeholder")
		return nil, nil
	case "tesseract":
		r, err := NewTesseract(opts.TesseractPath, opts.TesseractLang)
		if err != nil {
			log.Warn().Err(err).Msg("ocr: tesseract unavailable")
			return nil, nil
		}
		return r, nil
	case "vision":
		r, err := NewVision(ctx, opts.VisionCredentials)
		if err != nil {
			log.Warn().Err(err).Msg("ocr: vision unavailable")
			return nil, nil
		}
		return r, nil
	case "none", "off":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", opts.Engine)
	}
}
