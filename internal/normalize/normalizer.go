// Package normalize turns model replies into material records and hosts the
// prose operations (analyze, imitate, chat) that share the same model call.
package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/materialbox/internal/budget"
	"github.com/hyperifyio/materialbox/internal/cache"
	"github.com/hyperifyio/materialbox/internal/material"
	"github.com/hyperifyio/materialbox/internal/prompts"
)

const (
	// EchoPreviewRunes bounds the input echoed in a call-failure record.
	EchoPreviewRunes = 50
	// ChatContextRunes bounds the document text embedded in a chat prompt.
	ChatContextRunes = 5000
	// ReservedOutputTokens is kept free for the reply when checking the
	// context window.
	ReservedOutputTokens = 4096
)

// Fallback tags.
const (
	TagServiceError = "AI服务异常"
	TagFormatError  = "格式错误"
)

// Completer is the model-call primitive.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float32) (string, error)
}

// Normalizer runs the model-backed operations. It holds no per-request
// state and is safe for concurrent use when its Completer is.
type Normalizer struct {
	LLM Completer
	// Model is used for context-window estimates and cache keys.
	Model string
	// Cache stores successful Analyze replies. Optional.
	Cache *cache.ReplyCache
}

// ClassifyAndSplit asks the model to split text into material records. It
// never fails and never returns an empty slice: call failures and
// unparseable replies yield a single fallback record.
func (n *Normalizer) ClassifyAndSplit(ctx context.Context, text string) []material.Record {
	p := prompts.Get(string(prompts.Upload))
	if tokens := budget.EstimatePromptTokens(p.SystemPrompt, text); !budget.FitsInContext(n.Model, ReservedOutputTokens, tokens) {
		log.Warn().Str("model", n.Model).Int("prompt_tokens", tokens).Int("context_tokens", budget.ModelContextTokens(n.Model)).Msg("upload text may exceed model context")
	}
	reply, err := n.LLM.Complete(ctx, p.SystemPrompt, text, p.Temperature)
	if err != nil {
		log.Warn().Err(err).Msg("classify: model call failed")
		return []material.Record{serviceErrorRecord(text, err)}
	}
	recs, shape, err := decodeReply(payloadOf(reply))
	if err != nil {
		log.Warn().Err(err).Int("reply_len", len(reply)).Msg("classify: unusable model reply")
		return []material.Record{formatErrorRecord(text)}
	}
	logOffTaxonomy(recs)
	log.Debug().Str("shape", shape.String()).Int("records", len(recs)).Msg("classify: decoded")
	return recs
}

// payloadOf strips fences and, unless the remainder already is a JSON
// document, narrows it to the bracket or brace span that opens first and
// parses. When neither parses the bracket span is returned.
func payloadOf(reply string) string {
	clean := StripFences(reply)
	if (strings.HasPrefix(clean, "[") || strings.HasPrefix(clean, "{")) && json.Valid([]byte(clean)) {
		return clean
	}
	arr, arrOK := BracketSpan(clean)
	obj, objOK := BraceSpan(clean)
	arrOK = arrOK && json.Valid([]byte(arr))
	objOK = objOK && json.Valid([]byte(obj))
	switch {
	case arrOK && objOK:
		if strings.IndexByte(clean, '{') < strings.IndexByte(clean, '[') {
			return obj
		}
		return arr
	case objOK:
		return obj
	case arrOK:
		return arr
	}
	if arr != "" {
		return arr
	}
	return clean
}

func serviceErrorRecord(text string, err error) material.Record {
	return material.Record{
		Type:    material.Uncategorized,
		Themes:  []string{},
		Tags:    []string{TagServiceError},
		Content: fmt.Sprintf("AI 连接错误: %v。原始内容: %s...", err, truncateRunes(text, EchoPreviewRunes)),
	}
}

func formatErrorRecord(text string) material.Record {
	return material.Record{
		Type:    material.Uncategorized,
		Themes:  []string{},
		Tags:    []string{TagFormatError},
		Content: text,
	}
}

// logOffTaxonomy notes labels outside the fixed taxonomy. They are kept.
func logOffTaxonomy(recs []material.Record) {
	for i, r := range recs {
		if r.Type != material.Uncategorized && !material.IsCategory(r.Type) {
			log.Debug().Int("record", i).Str("type", r.Type).Msg("classify: type outside taxonomy")
		}
		for _, th := range r.Themes {
			if !material.IsTheme(th) {
				log.Debug().Int("record", i).Str("theme", th).Msg("classify: theme outside taxonomy")
			}
		}
	}
}

// Analyze returns literary commentary on content, or a localized
// unavailability message.
func (n *Normalizer) Analyze(ctx context.Context, content string) string {
	p := prompts.Get(string(prompts.Analyze))
	key := cache.KeyFrom(n.Model, p.SystemPrompt, content)
	if cached, ok, err := n.Cache.Get(ctx, key); err == nil && ok {
		log.Debug().Msg("analyze: cache hit")
		return cached
	}
	reply, err := n.LLM.Complete(ctx, p.SystemPrompt, content, p.Temperature)
	if err != nil {
		log.Warn().Err(err).Msg("analyze: model call failed")
		return fmt.Sprintf("解析服务暂时不可用: %v", err)
	}
	if err := n.Cache.Save(ctx, key, n.Model, reply); err != nil {
		log.Debug().Err(err).Msg("analyze: cache save failed")
	}
	return reply
}

// Imitate returns writing exercises derived from sample. Inputs too short
// to imitate are rejected by the model itself with prompts.ImitateRefusal.
func (n *Normalizer) Imitate(ctx context.Context, sample string) string {
	p := prompts.Get(string(prompts.Imitate))
	reply, err := n.LLM.Complete(ctx, p.SystemPrompt, sample, p.Temperature)
	if err != nil {
		log.Warn().Err(err).Msg("imitate: model call failed")
		return fmt.Sprintf("仿写服务暂时不可用: %v", err)
	}
	return reply
}

// Chat sends an assembled prompt with an optional system message.
func (n *Normalizer) Chat(ctx context.Context, prompt string, system string) string {
	p := prompts.Get(string(prompts.Chat))
	reply, err := n.LLM.Complete(ctx, system, prompt, p.Temperature)
	if err != nil {
		log.Warn().Err(err).Msg("chat: model call failed")
		return fmt.Sprintf("对话服务暂时不可用: %v", err)
	}
	return reply
}

// ChatPrompt embeds the first ChatContextRunes runes of a document, the
// conversation mode and the user's instruction into one prompt.
func ChatPrompt(content, mode, instruction string) string {
	if strings.TrimSpace(mode) == "" {
		mode = "general"
	}
	modes := make([]string, 0, len(prompts.ChatModes))
	for _, m := range []string{"general", "analyze", "rewrite"} {
		modes = append(modes, m+"="+prompts.ChatModes[m])
	}
	var b strings.Builder
	b.WriteString("【背景信息】\n")
	b.WriteString("用户正在阅读一篇作文素材，内容如下：\n===\n")
	b.WriteString(truncateRunes(content, ChatContextRunes))
	b.WriteString("\n===\n\n")
	b.WriteString("【用户当前模式】\n")
	fmt.Fprintf(&b, "%s (%s)\n\n", mode, strings.Join(modes, ", "))
	b.WriteString("【用户指令】\n")
	b.WriteString(instruction)
	b.WriteString("\n\n请根据素材内容执行用户的指令。\n")
	return b.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
