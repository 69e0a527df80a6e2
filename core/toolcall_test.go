package core

import (
	"testing"
)

func TestToolCall_ArgumentsMap(t *testing.T) {
	tests := []struct {
		name    string
		args    any
		want    map[string]any
		wantErr bool
	}{
		{name: "nil arguments", args: nil, want: map[string]any{}},
		{name: "empty string", args: "", want: map[string]any{}},
		{name: "decoded map passes through", args: map[string]any{"x": 1.0}, want: map[string]any{"x": 1.0}},
		{name: "json string decodes", args: `{"x": 1}`, want: map[string]any{"x": 1.0}},
		{name: "json null decodes to empty map", args: `null`, want: map[string]any{}},
		{name: "malformed json", args: `{"x": `, wantErr: true},
		{name: "non-object json", args: `[1, 2]`, wantErr: true},
		{name: "unsupported type", args: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := NewToolCall("calculator", tt.args)
			got, err := tc.ArgumentsMap()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Fatalf("key %s: got %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestToolCall_StringAndMapArgumentsAgree(t *testing.T) {
	fromString := NewToolCall("calculator", `{"expression": "2*21"}`)
	fromMap := NewToolCall("calculator", map[string]any{"expression": "2*21"})

	a, err := fromString.ArgumentsMap()
	if err != nil {
		t.Fatalf("string form: %v", err)
	}
	b, err := fromMap.ArgumentsMap()
	if err != nil {
		t.Fatalf("map form: %v", err)
	}
	if a["expression"] != b["expression"] {
		t.Fatalf("decoded forms differ: %v vs %v", a, b)
	}
}

func TestNewToolCall(t *testing.T) {
	tc := NewToolCall("current_time", nil)
	if tc.ID == "" {
		t.Fatal("tool call should get an ID")
	}
	if tc.Type != ToolCallTypeFunction {
		t.Fatalf("Type = %s, want %s", tc.Type, ToolCallTypeFunction)
	}
	if tc.Function.Name != "current_time" {
		t.Fatalf("Name = %s", tc.Function.Name)
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(RoleHuman, "hello")
	if msg.Role != RoleHuman || msg.Content != "hello" || msg.Timestamp.IsZero() {
		t.Fatalf("NewMessage malformed: %+v", msg)
	}

	tagged := NewMessageWithMetadata(RoleAssistant, "hi", map[string]any{"thread_id": "t1"})
	if tagged.Metadata["thread_id"] != "t1" {
		t.Fatalf("metadata not carried: %+v", tagged)
	}
}
