package memory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentswarm/core"
)

// Conversation is the history contract threads read from and append to.
// Implementations must be safe for concurrent use.
type Conversation interface {
	// AddMessage appends a message to the history.
	AddMessage(msg core.Message)

	// Messages returns the full history in insertion order.
	Messages() []core.Message

	// Last returns the most recent n messages in insertion order.
	Last(n int) []core.Message

	// Clear removes all messages.
	Clear()
}

// BufferOptions configures a Buffer.
type BufferOptions struct {
	// MaxSize bounds the history; the oldest messages are trimmed once the
	// bound is exceeded. Zero or negative means the default of 1000.
	MaxSize int
}

// Buffer is a bounded, process-local Conversation.
//
// Concurrency: protected by RWMutex; returned slices are copies so callers
// can iterate without holding any lock.
type Buffer struct {
	mu      sync.RWMutex
	maxSize int
	msgs    []core.Message
}

// NewBuffer creates an empty conversation buffer.
func NewBuffer(optFns ...func(o *BufferOptions)) *Buffer {
	opts := BufferOptions{MaxSize: 1000}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 1000
	}

	return &Buffer{maxSize: opts.MaxSize}
}

// WithMaxSize bounds the buffer to n messages.
func WithMaxSize(n int) func(o *BufferOptions) {
	return func(o *BufferOptions) {
		o.MaxSize = n
	}
}

// AddMessage implements Conversation, trimming the oldest entries beyond
// the size bound.
func (b *Buffer) AddMessage(msg core.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.msgs = append(b.msgs, msg)
	if len(b.msgs) > b.maxSize {
		b.msgs = b.msgs[len(b.msgs)-b.maxSize:]
	}
}

// Messages implements Conversation.
func (b *Buffer) Messages() []core.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]core.Message(nil), b.msgs...)
}

// Last implements Conversation.
func (b *Buffer) Last(n int) []core.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || len(b.msgs) == 0 {
		return nil
	}
	if n > len(b.msgs) {
		n = len(b.msgs)
	}
	return append([]core.Message(nil), b.msgs[len(b.msgs)-n:]...)
}

// Clear implements Conversation.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.msgs = nil
}

// Len returns the current number of stored messages.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.msgs)
}

// Search performs a case-insensitive substring match over message content,
// returning up to limit hits in insertion order. A linear scan is fine at
// this scale; swap for an index if histories grow past the buffer bound.
func (b *Buffer) Search(query string, limit int) []core.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if limit <= 0 {
		return nil
	}

	needle := strings.ToLower(query)
	results := make([]core.Message, 0, limit)
	for _, msg := range b.msgs {
		if len(results) >= limit {
			break
		}
		if needle == "" || strings.Contains(strings.ToLower(msg.Content), needle) {
			results = append(results, msg)
		}
	}
	return results
}

// Summary renders the last n messages as "role: content" lines for prompt
// assembly.
func (b *Buffer) Summary(n int) string {
	lines := make([]string, 0, n)
	for _, msg := range b.Last(n) {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(lines, "\n")
}
