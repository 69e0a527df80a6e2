package agent

import "context"

// Provider supplies dynamic instruction text at runtime. Implementations
// can derive instructions from thread metadata, environment, clocks or
// external systems.
type Provider interface {
	Instruction(ctx context.Context, meta map[string]any) (string, error)
}

// ProviderFunc is a functional adapter to allow ordinary functions to be
// used as Providers.
type ProviderFunc func(ctx context.Context, meta map[string]any) (string, error)

// Instruction implements Provider.
func (f ProviderFunc) Instruction(ctx context.Context, meta map[string]any) (string, error) {
	return f(ctx, meta)
}

// Instruction represents either a static instruction string or a dynamic
// provider, mirroring a string | provider union in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(ctx context.Context, meta map[string]any) (string, error)) Instruction {
	return Instruction{provider: ProviderFunc(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(ctx context.Context, meta map[string]any) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx, meta)
	}
	return i.text, nil
}
