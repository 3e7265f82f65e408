package expand

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	scouterrors "sjsage522/productscout/pkg/errors"
)

const (
	systemPrompt   = "You are a product-search assistant for home décor."
	requestTimeout = 30 * time.Second
)

var listMarker = regexp.MustCompile(`^\s*(?:[-•*]+|\d+[.)]|\d+\s*-)\s*`)

// OpenAIExpander asks a chat-completion model for search phrases
type OpenAIExpander struct {
	client *openai.Client
	model  string
}

// NewOpenAIExpander creates an expander; an empty baseURL uses the public API
func NewOpenAIExpander(apiKey, model, baseURL string) *OpenAIExpander {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIExpander{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Expand sends one completion request and parses its lines
func (o *OpenAIExpander) Expand(ctx context.Context, item string, max int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(
				"Expand the item name into %d concise search queries suitable for Amazon/Flipkart.\nItem: %q", max, item)},
		},
		MaxTokens:   200,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, scouterrors.NewExpansion("chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, scouterrors.NewExpansion("chat completion returned no choices", nil)
	}

	phrases := ParseCompletion(resp.Choices[0].Message.Content, max)
	if len(phrases) == 0 {
		return nil, scouterrors.NewExpansion("chat completion had no usable lines", nil)
	}
	return phrases, nil
}

// ParseCompletion splits model output into phrases. Bullets, numbering and
// surrounding quotes are removed; a single line is split on commas and
// semicolons.
func ParseCompletion(text string, max int) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = listMarker.ReplaceAllString(line, "")
		line = strings.Trim(strings.TrimSpace(line), `"'`)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 1 {
		parts := strings.FieldsFunc(lines[0], func(r rune) bool { return r == ',' || r == ';' })
		if len(parts) > 1 {
			lines = lines[:0]
			for _, p := range parts {
				lines = append(lines, strings.Trim(strings.TrimSpace(p), `"'`))
			}
		}
	}

	return Dedupe(lines, max)
}
