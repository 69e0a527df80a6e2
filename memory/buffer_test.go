package memory

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/hupe1980/agentswarm/core"
)

// Interface compliance (compile-time assertion)
var _ Conversation = (*Buffer)(nil)

func TestBuffer_AddAndList(t *testing.T) {
	buf := NewBuffer()
	if got := buf.Messages(); len(got) != 0 {
		t.Fatalf("expected empty buffer, got %#v", got)
	}

	buf.AddMessage(core.NewMessage(core.RoleHuman, "hello"))
	buf.AddMessage(core.NewMessage(core.RoleAssistant, "hi there"))

	msgs := buf.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != core.RoleHuman || msgs[1].Role != core.RoleAssistant {
		t.Fatalf("unexpected order: %#v", msgs)
	}

	// mutation safety (returned slice is a copy)
	msgs[0].Content = "changed"
	if buf.Messages()[0].Content != "hello" {
		t.Fatalf("expected copy isolation, got %q", buf.Messages()[0].Content)
	}
}

func TestBuffer_MaxSizeTrimsOldest(t *testing.T) {
	buf := NewBuffer(WithMaxSize(3))
	for i := 0; i < 5; i++ {
		buf.AddMessage(core.NewMessage(core.RoleHuman, fmt.Sprintf("msg-%d", i)))
	}

	msgs := buf.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages after trim, got %d", len(msgs))
	}
	if msgs[0].Content != "msg-2" || msgs[2].Content != "msg-4" {
		t.Fatalf("expected oldest trimmed, got %#v", msgs)
	}
}

func TestBuffer_Last(t *testing.T) {
	buf := NewBuffer()
	for i := 0; i < 4; i++ {
		buf.AddMessage(core.NewMessage(core.RoleHuman, fmt.Sprintf("msg-%d", i)))
	}

	last := buf.Last(2)
	if len(last) != 2 || last[0].Content != "msg-2" || last[1].Content != "msg-3" {
		t.Fatalf("unexpected tail: %#v", last)
	}
	if got := buf.Last(10); len(got) != 4 {
		t.Fatalf("expected full history, got %d", len(got))
	}
	if got := buf.Last(0); got != nil {
		t.Fatalf("expected nil for n=0, got %#v", got)
	}
}

func TestBuffer_Clear(t *testing.T) {
	buf := NewBuffer()
	buf.AddMessage(core.NewMessage(core.RoleHuman, "hello"))
	buf.Clear()
	if buf.Len() != 0 {
		t.Fatalf("expected empty buffer after clear, got %d", buf.Len())
	}
}

func TestBuffer_Search(t *testing.T) {
	buf := NewBuffer()
	buf.AddMessage(core.NewMessage(core.RoleHuman, "What is the Weather in Berlin?"))
	buf.AddMessage(core.NewMessage(core.RoleAssistant, "Sunny, 25 degrees."))
	buf.AddMessage(core.NewMessage(core.RoleHuman, "And the weather in Paris?"))

	hits := buf.Search("weather", 10)
	if len(hits) != 2 {
		t.Fatalf("expected 2 case-insensitive hits, got %d", len(hits))
	}
	if hits := buf.Search("weather", 1); len(hits) != 1 {
		t.Fatalf("expected limit respected, got %d", len(hits))
	}
	if hits := buf.Search("tokyo", 10); len(hits) != 0 {
		t.Fatalf("expected no hits, got %#v", hits)
	}
}

func TestBuffer_Summary(t *testing.T) {
	buf := NewBuffer()
	buf.AddMessage(core.NewMessage(core.RoleHuman, "hello"))
	buf.AddMessage(core.NewMessage(core.RoleAssistant, "hi there"))

	summary := buf.Summary(2)
	want := "human: hello\nassistant: hi there"
	if summary != want {
		t.Fatalf("unexpected summary:\n%s", summary)
	}
	if !strings.Contains(buf.Summary(1), "assistant") {
		t.Fatalf("expected only the last message, got %q", buf.Summary(1))
	}
}

func TestBuffer_ConcurrentAccess(t *testing.T) {
	buf := NewBuffer()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				buf.AddMessage(core.NewMessage(core.RoleHuman, fmt.Sprintf("w%d-%d", n, j)))
				_ = buf.Messages()
				_ = buf.Last(5)
			}
		}(i)
	}
	wg.Wait()

	if buf.Len() != 400 {
		t.Fatalf("expected 400 messages, got %d", buf.Len())
	}
}

func TestSharedState(t *testing.T) {
	state := NewSharedState()

	state.Set("topic", "quarterly report")
	state.Set("count", 3)

	if v, ok := state.GetString("topic"); !ok || v != "quarterly report" {
		t.Fatalf("unexpected string value: %q %v", v, ok)
	}
	if _, ok := state.GetString("count"); ok {
		t.Fatalf("expected non-string to miss GetString")
	}
	if v, ok := state.Get("count"); !ok || v.(int) != 3 {
		t.Fatalf("unexpected value: %#v %v", v, ok)
	}

	state.Delete("count")
	if _, ok := state.Get("count"); ok {
		t.Fatalf("expected key deleted")
	}
	if keys := state.Keys(); len(keys) != 1 || keys[0] != "topic" {
		t.Fatalf("unexpected keys: %#v", keys)
	}

	state.Clear()
	if state.Len() != 0 {
		t.Fatalf("expected empty state after clear, got %d", state.Len())
	}
}

func TestSharedState_ConcurrentAccess(t *testing.T) {
	state := NewSharedState()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("k%d", n)
				state.Set(key, j)
				_, _ = state.Get(key)
				_ = state.Keys()
			}
		}(i)
	}
	wg.Wait()

	if state.Len() != 8 {
		t.Fatalf("expected 8 keys, got %d", state.Len())
	}
}
