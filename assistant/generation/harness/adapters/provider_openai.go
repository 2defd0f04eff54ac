package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider streams chat completions from an OpenAI-compatible endpoint.
type OpenAIProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIProvider targets baseURL; a nil httpClient uses http.DefaultClient.
// No timeout is imposed here: callers bound a turn through its context.
func NewOpenAIProvider(baseURL string, httpClient *http.Client) *OpenAIProvider {
	return &OpenAIProvider{baseURL: baseURL, httpClient: httpClient}
}

// OpenStream starts a streaming completion. The credential is resolved per
// turn, so the client is built per call.
func (p *OpenAIProvider) OpenStream(ctx context.Context, req ports.CompletionRequest, credential string) (ports.Stream, error) {
	cfg := openai.DefaultConfig(credential)
	if p.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(p.baseURL, "/")
	}
	if p.httpClient != nil {
		cfg.HTTPClient = p.httpClient
	}
	client := openai.NewClientWithConfig(cfg)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	stream, err := client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: req.MaxOutputTokens,
		Stream:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat completion stream: %w", err)
	}
	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

// Recv returns the next non-empty content delta. Chunks that carry only a
// role or a finish reason are skipped.
func (s *openAIStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}

		var b strings.Builder
		for _, choice := range resp.Choices {
			b.WriteString(choice.Delta.Content)
		}
		if b.Len() > 0 {
			return b.String(), nil
		}
	}
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

var (
	_ ports.Provider = (*OpenAIProvider)(nil)
	_ ports.Stream   = (*openAIStream)(nil)
)
