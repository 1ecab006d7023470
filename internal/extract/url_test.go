package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/materialbox/internal/fetch"
)

func TestURLReader_BlockedHostSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	r := &URLReader{Fetch: &fetch.Client{}, BlockedHosts: []string{"127.0.0.1"}}
	got := r.Read(context.Background(), srv.URL)
	if got != BlockedMessage(srv.URL) {
		t.Fatalf("got %q", got)
	}
	if calls != 0 {
		t.Fatalf("blocked host must not be fetched")
	}
}

func TestURLReader_DefaultBlockedHost(t *testing.T) {
	url := "https://www.xiaohongshu.com/explore/123"
	r := &URLReader{BlockedHosts: DefaultBlockedHosts}
	got := r.Read(context.Background(), url)
	if !strings.Contains(got, url) || !strings.Contains(got, "截图") {
		t.Fatalf("got %q", got)
	}
}

func TestURLReader_FetchesAndStrips(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><nav>菜单</nav><p>正文内容</p><footer>页脚</footer></body></html>`))
	}))
	defer srv.Close()

	r := &URLReader{BlockedHosts: DefaultBlockedHosts}
	got := r.Read(context.Background(), srv.URL)
	if got != "正文内容" {
		t.Fatalf("got %q", got)
	}
	if gotUA != fetch.BrowserUserAgent {
		t.Fatalf("user agent=%q", gotUA)
	}
}

func TestURLReader_FailureMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	r := &URLReader{Fetch: &fetch.Client{PerRequestTimeout: time.Second}}
	if got := r.Read(context.Background(), srv.URL); got != FetchFailedMessage(srv.URL) {
		t.Fatalf("got %q", got)
	}
}
