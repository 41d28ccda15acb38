package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ddnowicki/live-captioning/cache"
)

const systemInstructions = "You are a translator. Translate the following English text to Polish. Provide only the translation, no explanations."

// Translator turns English chunk text into Polish through the OpenAI
// chat completions API. Results are memoized by exact chunk text so
// re-sent silence or repeated phrases skip the network round trip; a
// cache miss only costs an extra call.
type Translator struct {
	client *openai.Client
	model  string
	memo   *cache.Cache
}

// New creates a Translator using the given model and memo cache.
func New(apiKey, model string, memo *cache.Cache) (*Translator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if memo == nil {
		return nil, fmt.Errorf("memo cache is required")
	}
	return &Translator{
		client: openai.NewClient(apiKey),
		model:  model,
		memo:   memo,
	}, nil
}

// Translate returns the Polish rendering of text, from the memo when
// the exact text was translated before.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if translated, ok := t.memo.Get(text); ok {
		return translated, nil
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstructions},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.6,
		MaxTokens:   200,
	})
	if err != nil {
		return "", errors.Wrap(err, "translation request")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("translation response has no choices")
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	t.memo.Put(text, translated)
	return translated, nil
}
