package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"system", RoleSystem},
		{"user", RoleUser},
		{"assistant", RoleAssistant},
		{"User", RoleUser},
		{"ASSISTANT", RoleAssistant},
		{"sYsTeM", RoleSystem},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseRole_Unknown(t *testing.T) {
	for _, in := range []string{"", "tool", "developer", " user"} {
		_, err := ParseRole(in)
		require.Error(t, err, in)
		assert.Contains(t, err.Error(), "unable to decode")
	}
}

func TestRole_MarshalText(t *testing.T) {
	out, err := Role("User").MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "user", string(out))

	_, err = Role("bogus").MarshalText()
	assert.Error(t, err)
}
