// Package completion converts assembled contexts into chat-completion
// requests for OpenAI-compatible providers.
package completion

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/fathom-chat/contextd/internal/turn"
)

// Completer generates a reply from an assembled context and the new
// user message.
type Completer interface {
	Complete(ctx context.Context, actx turn.AssembledContext, message string) (string, error)
}

// Config holds provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// OpenAIClient implements Completer against any OpenAI-compatible API.
type OpenAIClient struct {
	client *openai.Client
	cfg    Config
}

// NewOpenAIClient creates a completion client.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4VisionPreview
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}
}

// Complete sends the assembled history plus the new message and returns
// the model's reply.
func (c *OpenAIClient) Complete(ctx context.Context, actx turn.AssembledContext, message string) (string, error) {
	msgs := Messages(actx)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Messages converts an assembled context to chat-completion messages.
// Turns without attachments become plain text messages. Turns with
// attachments become multimodal messages where each unique image is
// inlined as a base64 data URL and each duplicate is replaced by a
// short textual back-reference.
func Messages(actx turn.AssembledContext) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(actx.Turns))
	for _, st := range actx.Turns {
		msgs = append(msgs, convertTurn(st.Turn))
	}
	return msgs
}

func convertTurn(t turn.Turn) openai.ChatCompletionMessage {
	role := openai.ChatMessageRoleUser
	if t.Role == turn.RoleAssistant {
		role = openai.ChatMessageRoleAssistant
	}

	if !t.HasAttachments() {
		return openai.ChatCompletionMessage{Role: role, Content: t.Content}
	}

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: t.Content},
	}
	for _, ref := range t.Attachments {
		parts = append(parts, convertImage(ref))
	}
	return openai.ChatCompletionMessage{Role: role, MultiContent: parts}
}

func convertImage(ref turn.ImageRef) openai.ChatMessagePart {
	if ref.IsDuplicate {
		return openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: fmt.Sprintf("[image %s repeated, shown earlier in this conversation]", ref.Hash),
		}
	}
	if len(ref.Data) > 0 {
		mime := ref.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(ref.Data))
		return openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailAuto},
		}
	}
	return openai.ChatMessagePart{
		Type:     openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{URL: ref.URL, Detail: openai.ImageURLDetailAuto},
	}
}
