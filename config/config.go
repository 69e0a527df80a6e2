// Package config loads declarative agency definitions from YAML and
// builds running agencies from them.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentswarm/tool"
	"github.com/hupe1980/agentswarm/tool/tools"
	"github.com/hupe1980/agentswarm/workflow"
)

// Config is the root of a declarative agency definition.
type Config struct {
	Logging            LoggingConfig    `yaml:"logging"`
	Gateway            GatewayConfig    `yaml:"gateway"`
	SharedInstructions string           `yaml:"shared_instructions"`
	MaxModelCalls      int              `yaml:"max_model_calls"`
	Agents             []AgentConfig    `yaml:"agents"`
	Workflows          []WorkflowConfig `yaml:"workflows"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// GatewayConfig tunes model call retries. Zero values keep the gateway
// defaults.
type GatewayConfig struct {
	MaxAttempts  int    `yaml:"max_attempts"`
	InitialDelay string `yaml:"initial_delay"` // time.ParseDuration form, e.g. "500ms"
}

// AgentConfig declares one agent.
type AgentConfig struct {
	Name               string   `yaml:"name"`
	Model              string   `yaml:"model"`
	Description        string   `yaml:"description"`
	Instructions       string   `yaml:"instructions"`
	Temperature        *float64 `yaml:"temperature"`
	MaxTokens          int      `yaml:"max_tokens"`
	InlineToolProtocol bool     `yaml:"inline_tool_protocol"`

	// Tools lists built-in tool names; see BuiltinToolNames.
	Tools []string `yaml:"tools"`
}

// WorkflowConfig declares one workflow over the configured agents.
type WorkflowConfig struct {
	Name  string          `yaml:"name"`
	Steps []workflow.Step `yaml:"steps"`
}

// builtinTools maps config tool names onto constructors. send_message is
// absent on purpose: agencies wire it automatically.
var builtinTools = map[string]func() tool.Tool{
	"calculator":   func() tool.Tool { return tools.NewCalculatorTool() },
	"current_time": func() tool.Tool { return tools.NewCurrentTimeTool() },
}

// BuiltinToolNames returns the tool names assignable in agent configs,
// sorted.
func BuiltinToolNames() []string {
	names := make([]string, 0, len(builtinTools))
	for name := range builtinTools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads a YAML config file. Environment variables referenced as
// ${VAR} are expanded before parsing, so secrets can stay out of the
// file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes and validates a YAML config document.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the definition for problems a build would only hit
// halfway through: unknown levels and tools, duplicate names, malformed
// durations and invalid workflow structure.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging: unknown format %q (text or json)", c.Logging.Format)
	}

	if c.Gateway.MaxAttempts < 0 {
		return errors.New("gateway: max_attempts must not be negative")
	}
	if c.Gateway.InitialDelay != "" {
		if _, err := time.ParseDuration(c.Gateway.InitialDelay); err != nil {
			return fmt.Errorf("gateway: invalid initial_delay: %w", err)
		}
	}
	if c.MaxModelCalls < 0 {
		return errors.New("max_model_calls must not be negative")
	}

	agentNames := make(map[string]struct{}, len(c.Agents))
	for i, ac := range c.Agents {
		if ac.Name == "" {
			return fmt.Errorf("agents[%d]: name required", i)
		}
		if ac.Model == "" {
			return fmt.Errorf("agent %q: model required", ac.Name)
		}
		if _, dup := agentNames[ac.Name]; dup {
			return fmt.Errorf("agent %q declared twice", ac.Name)
		}
		agentNames[ac.Name] = struct{}{}

		for _, name := range ac.Tools {
			if name == tools.SendMessageToolName {
				return fmt.Errorf("agent %q: %s is wired automatically and cannot be assigned",
					ac.Name, tools.SendMessageToolName)
			}
			if _, ok := builtinTools[name]; !ok {
				return fmt.Errorf("agent %q: unknown tool %q (available: %s)",
					ac.Name, name, strings.Join(BuiltinToolNames(), ", "))
			}
		}
	}

	workflowNames := make(map[string]struct{}, len(c.Workflows))
	for _, wc := range c.Workflows {
		if wc.Name == "" {
			return errors.New("workflows: name required")
		}
		if _, dup := workflowNames[wc.Name]; dup {
			return fmt.Errorf("workflow %q declared twice", wc.Name)
		}
		workflowNames[wc.Name] = struct{}{}

		if _, err := workflow.New(wc.Name, wc.Steps); err != nil {
			return err
		}
		for _, s := range wc.Steps {
			if _, ok := agentNames[s.Agent]; !ok {
				return fmt.Errorf("workflow %q: step %q names an undeclared agent", wc.Name, s.Agent)
			}
		}
	}

	return nil
}
