package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperifyio/materialbox/internal/extract"
	"github.com/hyperifyio/materialbox/internal/material"
)

type fakeExtractor struct {
	text string
	ok   bool
}

func (f fakeExtractor) Extract(context.Context, string, []byte) (string, bool) { return f.text, f.ok }

type fakeURLs struct {
	page  string
	calls int
	last  string
}

func (f *fakeURLs) Read(_ context.Context, url string) string {
	f.calls++
	f.last = url
	return f.page
}

type fakeNormalizer struct {
	recs []material.Record
	last string
}

func (f *fakeNormalizer) ClassifyAndSplit(_ context.Context, text string) []material.Record {
	f.last = text
	if f.recs != nil {
		return f.recs
	}
	return []material.Record{{Type: material.Uncategorized, Content: text}}
}

type memStore struct {
	saved []string
	err   error
}

func (m *memStore) Create(_ context.Context, content string, _ material.Record) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.saved = append(m.saved, content)
	return int64(len(m.saved)), nil
}

func TestUploadFile_SkipsShortRecords(t *testing.T) {
	st := &memStore{}
	svc := &Service{
		Extractor: fakeExtractor{text: "全文", ok: true},
		Normalizer: &fakeNormalizer{recs: []material.Record{
			{Content: "太短"},
			{Content: "足够长的素材内容"},
			{Content: "五个字符啊"},
		}},
		Store: st,
	}
	res, err := svc.UploadFile(context.Background(), "a.txt", []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 2 || len(res.IDs) != 2 || st.saved[1] != "五个字符啊" {
		t.Fatalf("unexpected result %+v saved=%v", res, st.saved)
	}
}

func TestUploadFile_NothingExtracted(t *testing.T) {
	for _, ex := range []fakeExtractor{{ok: false}, {text: "", ok: true}} {
		svc := &Service{Extractor: ex, Normalizer: &fakeNormalizer{}, Store: &memStore{}}
		if _, err := svc.UploadFile(context.Background(), "a.pdf", nil); !errors.Is(err, ErrNothingExtracted) {
			t.Fatalf("expected ErrNothingExtracted, got %v", err)
		}
	}
}

func TestUploadFile_OCRPlaceholderIsKept(t *testing.T) {
	st := &memStore{}
	svc := &Service{
		Extractor:  &extract.Extractor{},
		Normalizer: &fakeNormalizer{},
		Store:      st,
	}
	res, err := svc.UploadFile(context.Background(), "photo.png", []byte{0x89, 0x50})
	if err != nil || res.Count != 1 || st.saved[0] != extract.OCRNotInstalledText {
		t.Fatalf("res=%+v err=%v saved=%v", res, err, st.saved)
	}
}

func TestUploadText_LinkDetection(t *testing.T) {
	cases := []struct {
		text, kind string
		fetched    bool
	}{
		{"https://example.com/a", "text", true},
		{"看这个 https://example.com", "text", false},
		{"example.com", "link", true},
		{"普通文本内容", "text", false},
	}
	for _, tc := range cases {
		urls := &fakeURLs{page: "网页正文内容"}
		n := &fakeNormalizer{}
		svc := &Service{URLs: urls, Normalizer: n, Store: &memStore{}}
		if _, err := svc.UploadText(context.Background(), tc.text, tc.kind); err != nil {
			t.Fatalf("%q: %v", tc.text, err)
		}
		if (urls.calls == 1) != tc.fetched {
			t.Fatalf("%q kind=%q: fetched=%v", tc.text, tc.kind, urls.calls == 1)
		}
		if tc.fetched && n.last != "网页正文内容" {
			t.Fatalf("page text must replace the link, got %q", n.last)
		}
	}
}

func TestUploadText_EmptyPageKeepsLink(t *testing.T) {
	n := &fakeNormalizer{}
	svc := &Service{URLs: &fakeURLs{}, Normalizer: n, Store: &memStore{}}
	if _, err := svc.UploadText(context.Background(), "https://example.com/empty", ""); err != nil {
		t.Fatal(err)
	}
	if n.last != "https://example.com/empty" {
		t.Fatalf("got %q", n.last)
	}
}

func TestUploadText_StoreError(t *testing.T) {
	svc := &Service{Normalizer: &fakeNormalizer{}, Store: &memStore{err: errors.New("disk full")}}
	if _, err := svc.UploadText(context.Background(), "一段足够长的文字", "text"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := svc.UploadText(context.Background(), "   ", "text"); !errors.Is(err, ErrNothingExtracted) {
		t.Fatalf("expected ErrNothingExtracted, got %v", err)
	}
}
