package ocr

import (
	"context"
	"testing"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\t青春\n" +
	"5\t1\t1\t1\t1\t2\t10\t0\t10\t10\t80\t奋斗\n" +
	"5\t1\t1\t1\t2\t1\t0\t20\t10\t10\t70\tHello\n" +
	"5\t1\t1\t1\t2\t2\t10\t20\t10\t10\t90\tworld\n" +
	"5\t1\t1\t1\t3\t1\t0\t40\t10\t10\t50\t \n"

func TestParseTSV_GroupsWordsIntoLines(t *testing.T) {
	frags, err := parseTSV([]byte(sampleTSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(frags) != 2 {
		t.Fatalf("got %d fragments: %+v", len(frags), frags)
	}
	if frags[0].Text != "青春奋斗" {
		t.Fatalf("han words must join without space, got %q", frags[0].Text)
	}
	if frags[1].Text != "Hello world" {
		t.Fatalf("latin words must join with space, got %q", frags[1].Text)
	}
	if frags[0].Confidence < 0.84 || frags[0].Confidence > 0.86 {
		t.Fatalf("confidence=%v", frags[0].Confidence)
	}
}

func TestParseTSV_Empty(t *testing.T) {
	frags, err := parseTSV([]byte("level\tpage_num\n"))
	if err != nil || len(frags) != 0 {
		t.Fatalf("expected no fragments, got %v %v", frags, err)
	}
}

func sym(text string, br visionpb.TextAnnotation_DetectedBreak_BreakType) *visionpb.Symbol {
	return &visionpb.Symbol{
		Text:     text,
		Property: &visionpb.TextAnnotation_TextProperty{DetectedBreak: &visionpb.TextAnnotation_DetectedBreak{Type: br}},
	}
}

func TestFragmentsFromAnnotation_Blocks(t *testing.T) {
	fta := &visionpb.TextAnnotation{
		Text: "ignored",
		Pages: []*visionpb.Page{{Blocks: []*visionpb.Block{
			{Confidence: 0.9, Paragraphs: []*visionpb.Paragraph{{Words: []*visionpb.Word{
				{Symbols: []*visionpb.Symbol{sym("家", visionpb.TextAnnotation_DetectedBreak_UNKNOWN), sym("国", visionpb.TextAnnotation_DetectedBreak_LINE_BREAK)}},
			}}}},
			{Confidence: 0.5},
		}}},
	}
	frags := fragmentsFromAnnotation(fta)
	if len(frags) != 1 || frags[0].Text != "家国" {
		t.Fatalf("unexpected fragments: %+v", frags)
	}
}

func TestFragmentsFromAnnotation_FlatText(t *testing.T) {
	frags := fragmentsFromAnnotation(&visionpb.TextAnnotation{Text: "第一行\n\n第二行\n"})
	if len(frags) != 2 || frags[1].Text != "第二行" {
		t.Fatalf("unexpected fragments: %+v", frags)
	}
	if fragmentsFromAnnotation(nil) != nil {
		t.Fatal("nil annotation must give no fragments")
	}
}

func TestNew_NoneAndUnknown(t *testing.T) {
	r, err := New(context.Background(), Options{Engine: "none"})
	if err != nil || r != nil {
		t.Fatalf("none: r=%v err=%v", r, err)
	}
	if _, err := New(context.Background(), Options{Engine: "bogus"}); err == nil {
		t.Fatal("expected error for unknown engine")
	}
	r, err = New(context.Background(), Options{Engine: "tesseract", TesseractPath: "/nonexistent/tesseract"})
	if err != nil || r != nil {
		t.Fatalf("missing tesseract must be unavailable, got r=%v err=%v", r, err)
	}
}
