package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultTimeout caps a single model call.
const DefaultTimeout = 60 * time.Second

// ErrMissingAPIKey is reported for every call when no API key is configured.
var ErrMissingAPIKey = errors.New("api key not configured")

// Kind classifies a failed model call.
type Kind string

const (
	KindAuth      Kind = "auth"
	KindTimeout   Kind = "timeout"
	KindTransport Kind = "transport"
	KindEmpty     Kind = "empty"
)

// ServiceError is returned by Caller.Complete when the model could not
// produce a reply.
type ServiceError struct {
	Kind Kind
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Caller is the single "call the model, return text" primitive shared by
// every model-backed operation.
type Caller struct {
	Client  Client
	Model   string
	APIKey  string
	Timeout time.Duration
}

// Complete sends an optional system message and the user content and returns
// the text of the first choice.
func (c *Caller) Complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	if c == nil || c.Client == nil {
		return "", &ServiceError{Kind: KindTransport, Err: errors.New("model client not configured")}
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return "", &ServiceError{Kind: KindAuth, Err: ErrMissingAPIKey}
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})

	log.Debug().Str("model", c.Model).Int("system_len", len(system)).Int("user_len", len(user)).Msg("llm request")
	started := time.Now()
	resp, err := c.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.Model,
		Messages:    msgs,
		Temperature: temperature,
		N:           1,
	})
	if err != nil {
		return "", classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Kind: KindEmpty, Err: errors.New("no choices")}
	}
	out := resp.Choices[0].Message.Content
	log.Debug().Str("model", c.Model).Int("reply_len", len(out)).Dur("took", time.Since(started)).Msg("llm response")
	return out, nil
}

func classify(ctx context.Context, err error) *ServiceError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ServiceError{Kind: KindTimeout, Err: err}
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return &ServiceError{Kind: KindAuth, Err: err}
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden {
			return &ServiceError{Kind: KindAuth, Err: err}
		}
	}
	return &ServiceError{Kind: KindTransport, Err: err}
}
