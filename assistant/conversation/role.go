package conversation

import (
	"fmt"
	"strings"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RoleError reports a string that does not name a known role.
type RoleError struct {
	Value string
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("unable to decode %q as a role", e.Value)
}

// ParseRole maps a role name to a Role, ignoring case.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case string(RoleSystem):
		return RoleSystem, nil
	case string(RoleUser):
		return RoleUser, nil
	case string(RoleAssistant):
		return RoleAssistant, nil
	default:
		return "", &RoleError{Value: s}
	}
}

func (r Role) String() string { return string(r) }

// MarshalText encodes the role as its lowercase name.
func (r Role) MarshalText() ([]byte, error) {
	parsed, err := ParseRole(string(r))
	if err != nil {
		return nil, err
	}
	return []byte(parsed), nil
}

// UnmarshalText decodes a role name case-insensitively.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
