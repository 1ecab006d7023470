package extract

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// Placeholder texts returned for images instead of recognized content.
const (
	OCRNotInstalledText = "【系统未配置图片识别引擎（Tesseract 或 Google Cloud Vision），无法解析图片】"
	NoTextDetectedText  = "【未能识别出文字，图片可能太模糊或没有文字】"
	OCRFailedText       = "【图片内容识别系统出错】"
)

func (e *Extractor) imageText(ctx context.Context, data []byte) (string, error) {
	if e.OCR == nil {
		return OCRNotInstalledText, nil
	}
	frags, err := e.OCR.Recognize(ctx, data)
	if err != nil {
		log.Warn().Err(err).Str("engine", e.OCR.Name()).Msg("ocr failed")
		return OCRFailedText, nil
	}
	lines := make([]string, 0, len(frags))
	for _, f := range frags {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		lines = append(lines, f.Text)
	}
	if len(lines) == 0 {
		return NoTextDetectedText, nil
	}
	return strings.Join(lines, "\n"), nil
}
