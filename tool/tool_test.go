package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	sum := NewFunctionTool("sum", "Add numbers", func(_ *Context, args map[string]any) (string, error) {
		a := args["a"].(float64)
		b := args["b"].(float64)
		return fmt.Sprintf("%g", a+b), nil
	}, WithParameters(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}))

	result, err := sum.Call(NewContext(context.Background()), map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, "5", result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	tl := NewFunctionTool("test", "Test", func(_ *Context, _ map[string]any) (string, error) {
		return "never", nil
	}, WithParameters(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		// interface slice mirrors the JSON decoded schema shape
		"required": []any{"a"},
	}))

	_, err := tl.Call(NewContext(context.Background()), map[string]any{})
	require.Error(t, err)

	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidationError, toolErr.Code)
	assert.Equal(t, "test", toolErr.Tool)
}

func TestFunctionTool_TypeMismatch(t *testing.T) {
	tl := NewFunctionTool("typed", "Typed", func(_ *Context, _ map[string]any) (string, error) {
		return "never", nil
	}, WithParameters(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count": map[string]any{"type": "integer"},
		},
		"required": []string{"count"},
	}))

	_, err := tl.Call(NewContext(context.Background()), map[string]any{"count": "three"})
	require.Error(t, err)

	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidationError, toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	tl := NewFunctionTool("fail", "Fails", func(_ *Context, _ map[string]any) (string, error) {
		return "", errors.New("boom")
	})

	_, err := tl.Call(NewContext(context.Background()), map[string]any{})
	require.Error(t, err)

	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecutionError, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)
}

func TestFunctionTool_CustomErrorForwarded(t *testing.T) {
	custom := &Error{Tool: "fail", Message: "quota exceeded", Code: "QUOTA_ERROR"}
	tl := NewFunctionTool("fail", "Fails", func(_ *Context, _ map[string]any) (string, error) {
		return "", custom
	})

	_, err := tl.Call(NewContext(context.Background()), map[string]any{})
	require.Error(t, err)

	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "QUOTA_ERROR", toolErr.Code)
	assert.Same(t, custom, toolErr)
}

type lookupArgs struct {
	City  string `json:"city" description:"City to look up"`
	Limit *int   `json:"limit,omitempty" description:"Max results"`
}

func TestFunctionTool_SchemaFromStruct(t *testing.T) {
	tl := NewFunctionTool("lookup", "Looks up cities", func(_ *Context, args map[string]any) (string, error) {
		return args["city"].(string), nil
	}, WithParametersFromStruct(lookupArgs{}))

	schema := tl.Parameters()
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "city")
	assert.Contains(t, props, "limit")
	assert.Equal(t, []string{"city"}, schema["required"])

	result, err := tl.Call(NewContext(context.Background()), map[string]any{"city": "Berlin"})
	assert.NoError(t, err)
	assert.Equal(t, "Berlin", result)
}

// -------------------- Error Tests --------------------

func TestErrorFormatting(t *testing.T) {
	withCode := &Error{Tool: "calculator", Message: "bad input", Code: CodeValidationError}
	assert.Equal(t, "tool error [VALIDATION_ERROR] in calculator: bad input", withCode.Error())

	withoutCode := &Error{Tool: "calculator", Message: "bad input"}
	assert.Equal(t, "tool error in calculator: bad input", withoutCode.Error())

	notFound := &NotFoundError{Tool: "missing"}
	assert.Equal(t, `tool "missing" not found`, notFound.Error())
}

// -------------------- Registry Tests --------------------

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	echo := NewFunctionTool("echo", "Echoes input", func(_ *Context, _ map[string]any) (string, error) {
		return "echo", nil
	})
	clock := NewFunctionTool("clock", "Tells time", func(_ *Context, _ map[string]any) (string, error) {
		return "now", nil
	})

	require.NoError(t, reg.Register(echo))
	require.NoError(t, reg.Register(clock))

	assert.Error(t, reg.Register(nil))
	assert.Error(t, reg.Register(echo), "duplicate must be rejected")
	assert.Error(t, reg.Register(NewFunctionTool("", "Anonymous", nil)))

	got, ok := reg.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", got.Name())

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"clock", "echo"}, reg.Names())
	assert.Equal(t, 2, reg.Len())

	assert.True(t, reg.Deregister("echo"))
	assert.False(t, reg.Deregister("echo"), "second removal finds nothing")
	assert.Equal(t, []string{"clock"}, reg.Names())
	require.NoError(t, reg.Register(echo), "freed name can be reused")
}

func TestRegistry_Definitions(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewFunctionTool("beta", "Second", nil)))
	require.NoError(t, reg.Register(NewFunctionTool("alpha", "First", nil, WithParameters(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"q": map[string]any{"type": "string"},
		},
	}))))

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "beta", defs[1].Name)
	assert.Equal(t, "First", defs[0].Description)
	assert.Contains(t, defs[0].Parameters["properties"], "q")
}
