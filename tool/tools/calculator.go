package tools

import (
	"fmt"
	"strconv"

	"github.com/Knetic/govaluate"
	"github.com/hupe1980/agentswarm/tool"
)

// NewCalculatorTool returns the calculator built-in. It evaluates
// arithmetic and boolean expressions like "(2 + 3) * 4" or "10 > 3".
func NewCalculatorTool() *tool.FunctionTool {
	return tool.NewFunctionTool(
		"calculator",
		"Evaluates a mathematical expression and returns the result. Supports arithmetic operators, comparisons and parentheses.",
		evaluateExpression,
		tool.WithParameters(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{
					"type":        "string",
					"description": "The expression to evaluate, e.g. \"(2 + 3) * 4\"",
				},
			},
			"required": []string{"expression"},
		}),
	)
}

func evaluateExpression(_ *tool.Context, args map[string]any) (string, error) {
	expression, _ := args["expression"].(string)
	if expression == "" {
		return "", fmt.Errorf("expression must not be empty")
	}

	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return "", fmt.Errorf("invalid expression: %w", err)
	}

	result, err := expr.Evaluate(nil)
	if err != nil {
		return "", fmt.Errorf("evaluate expression: %w", err)
	}

	return formatResult(result), nil
}

// formatResult renders evaluation results without float artifacts: whole
// numbers print as integers.
func formatResult(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}
