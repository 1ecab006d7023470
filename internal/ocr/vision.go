package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// Vision calls Google Cloud Vision document text detection.
type Vision struct {
	client  *vision.ImageAnnotatorClient
	Timeout time.Duration
}

// NewVision creates an annotator client. creds may be a credentials file
// path, inline service-account JSON, or empty for default credentials.
func NewVision(ctx context.Context, creds string) (*Vision, error) {
	c, err := vision.NewImageAnnotatorClient(ctx, clientOptions(creds)...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &Vision{client: c, Timeout: 60 * time.Second}, nil
}

func clientOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (v *Vision) Name() string { return "vision" }

// Close releases the underlying gRPC connection.
func (v *Vision) Close() error {
	if v == nil || v.client == nil {
		return nil
	}
	return v.client.Close()
}

// Recognize returns one fragment per detected text block.
func (v *Vision) Recognize(ctx context.Context, image []byte) ([]Fragment, error) {
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}
	req := &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{{
		Image:    &visionpb.Image{Content: image},
		Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
	}}}
	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return nil, nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}
	return fragmentsFromAnnotation(r0.FullTextAnnotation), nil
}

func fragmentsFromAnnotation(fta *visionpb.TextAnnotation) []Fragment {
	if fta == nil {
		return nil
	}
	var out []Fragment
	for _, pg := range fta.Pages {
		if pg == nil {
			continue
		}
		for _, blk := range pg.Blocks {
			if blk == nil {
				continue
			}
			text := strings.TrimSpace(blockText(blk))
			if text == "" {
				continue
			}
			out = append(out, Fragment{Text: text, Confidence: float64(blk.Confidence)})
		}
	}
	if len(out) > 0 {
		return out
	}
	// no structural detail, fall back to the flat text
	for _, line := range strings.Split(fta.Text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, Fragment{Text: line})
		}
	}
	return out
}

func blockText(blk *visionpb.Block) string {
	var b strings.Builder
	for _, para := range blk.Paragraphs {
		for _, w := range para.GetWords() {
			for _, s := range w.GetSymbols() {
				b.WriteString(s.GetText())
				switch s.GetProperty().GetDetectedBreak().GetType() {
				case visionpb.TextAnnotation_DetectedBreak_SPACE, visionpb.TextAnnotation_DetectedBreak_SURE_SPACE:
					b.WriteByte(' ')
				case visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE, visionpb.TextAnnotation_DetectedBreak_LINE_BREAK:
					b.WriteByte('\n')
				}
			}
		}
	}
	return b.String()
}
