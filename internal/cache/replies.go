package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReplyEntry is a stored model reply.
type ReplyEntry struct {
	Model   string    `json:"model"`
	Reply   string    `json:"reply"`
	SavedAt time.Time `json:"saved_at"`
}

// ReplyCache stores model replies keyed by model and prompt digest.
type ReplyCache struct {
	Dir string
	// StrictPerms enforces 0700 on the directory and 0600 on files.
	StrictPerms bool
}

func (c *ReplyCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached reply for key. A missing or unreadable entry is a
// miss, not an error.
func (c *ReplyCache) Get(_ context.Context, key string) (string, bool, error) {
	if c == nil {
		return "", false, nil
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return "", false, err
	}
	b, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return "", false, nil
	}
	var e ReplyEntry
	if err := json.Unmarshal(b, &e); err != nil || e.Reply == "" {
		return "", false, nil
	}
	return e.Reply, true, nil
}

// Save stores reply under key.
func (c *ReplyCache) Save(_ context.Context, key string, model string, reply string) error {
	if c == nil {
		return nil
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	b, err := json.Marshal(ReplyEntry{Model: model, Reply: reply, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	return writeAtomic(c.pathFor(key), b, fileMode(c.StrictPerms))
}
