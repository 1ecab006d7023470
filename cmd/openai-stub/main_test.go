package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperifyio/materialbox/internal/material"
	"github.com/hyperifyio/materialbox/internal/prompts"
)

func TestReply_UploadSplitsParagraphs(t *testing.T) {
	out := reply(prompts.Get("upload").SystemPrompt, "第一段内容\n\n第二段内容")
	out = strings.TrimSuffix(strings.TrimPrefix(out, "```json\n"), "\n```")
	var recs []material.Record
	if err := json.Unmarshal([]byte(out), &recs); err != nil {
		t.Fatalf("reply is not a JSON array: %v", err)
	}
	if len(recs) != 2 || recs[1].Content != "第二段内容" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestReply_ProseProfiles(t *testing.T) {
	if !strings.Contains(reply(prompts.Get("analyze").SystemPrompt, "x"), "【简评】") {
		t.Fatalf("analyze reply missing sections")
	}
	if reply("", "hello") == "" {
		t.Fatalf("chat reply empty")
	}
}
