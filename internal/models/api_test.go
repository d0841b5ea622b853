package models

import (
	"strings"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"short", "short"},
		{strings.Repeat("x", 50), strings.Repeat("x", 50)},
		{strings.Repeat("x", 51), strings.Repeat("x", 50) + "..."},
		{strings.Repeat("ግ", 55), strings.Repeat("ግ", 50) + "..."},
	}
	for _, tt := range tests {
		if got := DeriveTitle(tt.in); got != tt.want {
			t.Errorf("DeriveTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConversationCloneIsIndependent(t *testing.T) {
	c := Conversation{ID: "c", Messages: []Message{{ID: "m1"}}}
	cp := c.Clone()
	cp.Messages[0].ID = "changed"
	cp.Messages = append(cp.Messages, Message{ID: "m2"})
	if c.Messages[0].ID != "m1" || len(c.Messages) != 1 {
		t.Errorf("clone shares state with original: %+v", c.Messages)
	}
}
