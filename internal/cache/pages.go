package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PageEntry captures a fetched page plus enough metadata for conditional
// revalidation.
type PageEntry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
	Body         []byte    `json:"body"`
}

// PageCache stores fetched pages on disk, one JSON file per URL.
type PageCache struct {
	Dir         string
	StrictPerms bool
}

func (c *PageCache) pathFor(url string) string {
	return filepath.Join(c.Dir, KeyFrom(url)+".json")
}

// Load returns the entry for url, or an error when absent.
func (c *PageCache) Load(_ context.Context, url string) (*PageEntry, error) {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.pathFor(url))
	if err != nil {
		return nil, err
	}
	var e PageEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode page entry: %w", err)
	}
	return &e, nil
}

// Save stores a page under its URL.
func (c *PageCache) Save(_ context.Context, e PageEntry) error {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}
	b, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("encode page entry: %w", err)
	}
	return writeAtomic(c.pathFor(e.URL), b, fileMode(c.StrictPerms))
}
