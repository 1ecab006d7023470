// Command openai-stub serves a minimal OpenAI-compatible endpoint for local
// runs without a model provider. Upload requests receive a material array
// built from the user text; every other request receives a canned reply.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/materialbox/internal/material"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var sys, user string
		for _, m := range req.Messages {
			switch m.Role {
			case "system":
				sys = m.Content
			case "user":
				user = m.Content
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "stub",
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": reply(sys, user)}},
			},
		})
	})
	return mux
}

// reply picks the canned answer for a system prompt.
func reply(sys, user string) string {
	switch {
	case strings.Contains(sys, "素材架构师"):
		var recs []material.Record
		for _, para := range strings.Split(user, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			recs = append(recs, material.Record{
				Type:    material.Categories[len(recs)%len(material.Categories)],
				Themes:  []string{material.Themes[0]},
				Tags:    []string{"stub"},
				Content: para,
			})
		}
		b, _ := json.Marshal(recs)
		return "```json\n" + string(b) + "\n```"
	case strings.Contains(sys, "高考作文"):
		return "【简评】内容充实。\n【写作角度】个人成长。\n【适用主题】青春奋斗。"
	case strings.Contains(sys, "仿写"):
		return "1. 主旨提炼\n2. 框架解构\n3. 仿写题目"
	default:
		return "这是一个离线回复。"
	}
}
