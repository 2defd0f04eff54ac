package harness

import (
	"strings"
	"unicode/utf8"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/conversation"
	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
)

// RequestBuilder maps a conversation onto a provider completion request.
type RequestBuilder struct {
	economyModel    string
	standardModel   string
	maxOutputTokens int
}

func NewRequestBuilder(economyModel, standardModel string, maxOutputTokens int) *RequestBuilder {
	return &RequestBuilder{
		economyModel:    economyModel,
		standardModel:   standardModel,
		maxOutputTokens: maxOutputTokens,
	}
}

// SelectModel picks the economy model when lowCost is set.
func (b *RequestBuilder) SelectModel(lowCost bool) string {
	if lowCost {
		return b.economyModel
	}
	return b.standardModel
}

// Build converts every message, in order, and fails on the first message that
// cannot be encoded for its role. The conversation is not modified.
func (b *RequestBuilder) Build(conv *conversation.Conversation, lowCost bool) (ports.CompletionRequest, error) {
	messages := make([]ports.ProviderMessage, 0, conv.Len())
	for i, msg := range conv.Messages {
		pm, err := buildMessage(i, msg)
		if err != nil {
			return ports.CompletionRequest{}, err
		}
		messages = append(messages, pm)
	}

	return ports.CompletionRequest{
		Model:           b.SelectModel(lowCost),
		Messages:        messages,
		MaxOutputTokens: b.maxOutputTokens,
	}, nil
}

func buildMessage(index int, msg conversation.Message) (ports.ProviderMessage, error) {
	fail := func(reason string) (ports.ProviderMessage, error) {
		return ports.ProviderMessage{}, &MessageBuildError{Index: index, Role: msg.Role, Reason: reason}
	}

	if !utf8.ValidString(msg.Content) {
		return fail("content is not valid UTF-8")
	}

	switch msg.Role {
	case conversation.RoleSystem, conversation.RoleUser:
		if strings.TrimSpace(msg.Content) == "" {
			return fail("content is empty")
		}
	case conversation.RoleAssistant:
		// an interrupted turn legitimately commits empty assistant content
	default:
		return fail("unknown role")
	}

	return ports.ProviderMessage{Role: string(msg.Role), Content: msg.Content}, nil
}
