package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestReplyCache_SaveGet(t *testing.T) {
	dir := t.TempDir()
	c := &ReplyCache{Dir: dir}
	key := KeyFrom("m", "sys", "user")
	if _, ok, err := c.Get(context.Background(), key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Save(context.Background(), key, "m", "点评内容"); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got != "点评内容" {
		t.Fatalf("got %q", got)
	}
}

func TestReplyCache_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := &ReplyCache{Dir: dir}
	key := KeyFrom("x")
	if err := os.WriteFile(filepath.Join(dir, key+".json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(context.Background(), key); err != nil || ok {
		t.Fatalf("corrupt entry must be a miss, got ok=%v err=%v", ok, err)
	}
}

func TestReplyCache_NilIsNoop(t *testing.T) {
	var c *ReplyCache
	if err := c.Save(context.Background(), "k", "m", "r"); err != nil {
		t.Fatalf("nil save: %v", err)
	}
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Fatalf("nil cache must miss")
	}
}

func TestReplyCache_StrictPerms(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "llm")
	c := &ReplyCache{Dir: dir, StrictPerms: true}
	key := KeyFrom("a")
	if err := c.Save(context.Background(), key, "m", "r"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Fatalf("dir perm=%v, want 0700", info.Mode().Perm())
	}
	finfo, err := os.Stat(filepath.Join(dir, key+".json"))
	if err != nil {
		t.Fatal(err)
	}
	if finfo.Mode().Perm() != 0o600 {
		t.Fatalf("file perm=%v, want 0600", finfo.Mode().Perm())
	}
}

func TestKeyFrom_Stable(t *testing.T) {
	if KeyFrom("a", "b") != KeyFrom("a", "b") {
		t.Fatal("key must be deterministic")
	}
	if KeyFrom("a", "b") == KeyFrom("ab") {
		t.Fatal("parts must be separated")
	}
}
