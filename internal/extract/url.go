package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/materialbox/internal/fetch"
)

// DefaultBlockedHosts are sites known to reject scraping.
var DefaultBlockedHosts = []string{"xiaohongshu"}

// URLReader fetches a page and returns its visible text. It never fails:
// blocked hosts and fetch errors produce guidance messages instead.
type URLReader struct {
	Fetch *fetch.Client
	// BlockedHosts are matched as substrings of the lowercased URL.
	BlockedHosts []string
}

// BlockedMessage is returned for URLs on a blocked host.
func BlockedMessage(url string) string {
	return fmt.Sprintf("检测到小红书链接：%s\n由于小红书反爬严格，建议您直接【截图】并使用图片上传功能，或直接复制文字内容粘贴。", url)
}

// FetchFailedMessage is returned when a page cannot be fetched.
func FetchFailedMessage(url string) string {
	return fmt.Sprintf("无法抓取该网页，建议复制内容上传。链接: %s", url)
}

func (r *URLReader) blocked(url string) bool {
	lower := strings.ToLower(url)
	for _, h := range r.BlockedHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func (r *URLReader) client() *fetch.Client {
	if r.Fetch != nil {
		return r.Fetch
	}
	return &fetch.Client{UserAgent: fetch.BrowserUserAgent, PerRequestTimeout: fetch.DefaultTimeout}
}

// Read returns the page text for url.
func (r *URLReader) Read(ctx context.Context, url string) string {
	if r.blocked(url) {
		log.Info().Str("url", url).Msg("url on blocked host, not fetched")
		return BlockedMessage(url)
	}
	body, err := r.client().Text(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("url fetch failed")
		return FetchFailedMessage(url)
	}
	return FromHTML(body).Text
}
