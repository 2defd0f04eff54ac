package harnessports

import (
	"context"
)

// ProviderMessage is one role-tagged message in a completion request.
type ProviderMessage struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// CompletionRequest is everything the provider needs to produce a streamed completion.
type CompletionRequest struct {
	Model           string
	Messages        []ProviderMessage // ordered, already truncated
	MaxOutputTokens int
}

// Stream yields incremental text fragments in provider order.
// Recv returns io.EOF once the provider signals completion.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Provider opens streaming completions against the remote endpoint.
type Provider interface {
	OpenStream(ctx context.Context, req CompletionRequest, credential string) (Stream, error)
}

// CredentialSource resolves the secret used to authenticate with the provider.
type CredentialSource interface {
	Resolve(ctx context.Context) (string, error)
}
