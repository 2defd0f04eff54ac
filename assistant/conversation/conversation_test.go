package conversation

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrompt = "You are a test assistant"

func filled(n int) *Conversation {
	c := New(testPrompt)
	for i := 1; i < n; i++ {
		role := RoleUser
		if i%2 == 0 {
			role = RoleAssistant
		}
		c.Append(role, fmt.Sprintf("msg-%d", i))
	}
	return c
}

func TestNew(t *testing.T) {
	c := New(testPrompt)

	require.Equal(t, 1, c.Len())
	assert.Equal(t, RoleSystem, c.Messages[0].Role)
	assert.Equal(t, testPrompt, c.Messages[0].Content)

	_, err := uuid.Parse(c.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, c.ID, New(testPrompt).ID)
}

func TestTruncate_OverLimit(t *testing.T) {
	for _, max := range []int{1, 2, 3, 5, 12} {
		for extra := 1; extra <= 4; extra++ {
			c := filled(max + extra)
			c.Truncate(max, testPrompt)

			require.Equal(t, max, c.Len(), "max=%d extra=%d", max, extra)
			assert.Equal(t, RoleSystem, c.Messages[0].Role)
		}
	}
}

func TestTruncate_KeepsNewestMessages(t *testing.T) {
	c := filled(6) // system, msg-1 .. msg-5
	c.Truncate(4, "other prompt")

	require.Equal(t, 4, c.Len())
	assert.Equal(t, NewMessage(RoleSystem, testPrompt), c.Messages[0], "existing system message is preserved")
	assert.Equal(t, "msg-3", c.Messages[1].Content)
	assert.Equal(t, "msg-4", c.Messages[2].Content)
	assert.Equal(t, "msg-5", c.Messages[3].Content)
}

func TestTruncate_SmallestWindowKeepsNewestMessage(t *testing.T) {
	c := filled(4) // system, msg-1 .. msg-3
	c.Truncate(2, testPrompt)

	assert.Equal(t, []Message{
		NewMessage(RoleSystem, testPrompt),
		NewMessage(RoleUser, "msg-3"),
	}, c.Messages)
}

func TestTruncate_WithinLimitIsNoOp(t *testing.T) {
	c := filled(4)
	before := c.Clone()

	c.Truncate(4, testPrompt)
	assert.Equal(t, before, c)

	c.Truncate(10, testPrompt)
	assert.Equal(t, before, c)
}

func TestTruncate_WithinLimitRepairsMissingSystem(t *testing.T) {
	c := &Conversation{ID: "x", Messages: []Message{
		NewMessage(RoleUser, "hi"),
		NewMessage(RoleAssistant, "hello"),
	}}

	c.Truncate(12, testPrompt)

	require.Equal(t, 3, c.Len())
	assert.Equal(t, NewMessage(RoleSystem, testPrompt), c.Messages[0])
	assert.Equal(t, "hi", c.Messages[1].Content)
}

func TestTruncate_ZeroDisablesBound(t *testing.T) {
	c := filled(30)
	c.Truncate(0, testPrompt)
	assert.Equal(t, 30, c.Len())
}

func TestEnsureSystem(t *testing.T) {
	empty := &Conversation{ID: "x"}
	empty.EnsureSystem(testPrompt)
	require.Equal(t, 1, empty.Len())
	assert.Equal(t, RoleSystem, empty.Messages[0].Role)

	custom := &Conversation{ID: "x", Messages: []Message{NewMessage(RoleSystem, "custom")}}
	custom.EnsureSystem(testPrompt)
	require.Equal(t, 1, custom.Len())
	assert.Equal(t, "custom", custom.Messages[0].Content)
}

func TestConversation_JSONDocument(t *testing.T) {
	c := New(testPrompt)
	c.Append(RoleUser, "hello")

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, c.ID, doc["id"])
	history, ok := doc["history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 2)
	assert.Equal(t, map[string]any{"role": "user", "content": "hello"}, history[1])
}

func TestConversation_DecodeRoleCaseInsensitive(t *testing.T) {
	raw := `{"id":"abc","history":[{"role":"System","content":"s"},{"role":"USER","content":"u"}]}`

	var c Conversation
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Equal(t, RoleSystem, c.Messages[0].Role)
	assert.Equal(t, RoleUser, c.Messages[1].Role)
}

func TestConversation_DecodeUnknownRole(t *testing.T) {
	raw := `{"id":"abc","history":[{"role":"tool","content":"s"}]}`

	var c Conversation
	err := json.Unmarshal([]byte(raw), &c)
	require.Error(t, err)

	var roleErr *RoleError
	assert.ErrorAs(t, err, &roleErr)
	assert.Equal(t, "tool", roleErr.Value)
}
