package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentswarm/agency"
	"github.com/hupe1980/agentswarm/agent"
	"github.com/hupe1980/agentswarm/logging"
	"github.com/hupe1980/agentswarm/model"
	"github.com/hupe1980/agentswarm/tool"
)

// Build turns a validated config into a running agency: a configured
// logger, a gateway with the stock provider registrations and the
// configured retry tuning, every declared agent with its built-in tools,
// and every declared workflow. Caller options append after the
// config-derived ones and may override them, which is how tests swap in
// a mock gateway.
func Build(cfg *Config, optFns ...func(o *agency.Options)) (*agency.Agency, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := buildLogger(cfg.Logging)

	var initialDelay time.Duration
	if cfg.Gateway.InitialDelay != "" {
		initialDelay, _ = time.ParseDuration(cfg.Gateway.InitialDelay) // checked by Validate
	}

	gw := model.NewGateway(func(o *model.GatewayOptions) {
		o.Registry = agency.DefaultRegistry()
		o.Logger = logger
		if cfg.Gateway.MaxAttempts > 0 {
			o.MaxAttempts = cfg.Gateway.MaxAttempts
		}
		if initialDelay > 0 {
			o.InitialDelay = initialDelay
		}
	})

	agencyOpts := []func(o *agency.Options){
		agency.WithLogger(logger),
		agency.WithGateway(gw),
	}
	if cfg.SharedInstructions != "" {
		agencyOpts = append(agencyOpts, agency.WithSharedInstructions(cfg.SharedInstructions))
	}
	if cfg.MaxModelCalls > 0 {
		agencyOpts = append(agencyOpts, agency.WithMaxModelCalls(cfg.MaxModelCalls))
	}
	agencyOpts = append(agencyOpts, optFns...)

	a := agency.New(agencyOpts...)

	for _, ac := range cfg.Agents {
		if _, err := a.AddAgent(ac.Name, ac.Model, agentOptions(ac)...); err != nil {
			return nil, fmt.Errorf("agent %q: %w", ac.Name, err)
		}
	}

	for _, wc := range cfg.Workflows {
		if _, err := a.CreateWorkflow(wc.Name, wc.Steps); err != nil {
			return nil, fmt.Errorf("workflow %q: %w", wc.Name, err)
		}
	}

	return a, nil
}

func agentOptions(ac AgentConfig) []func(o *agent.Options) {
	var opts []func(o *agent.Options)

	if ac.Description != "" {
		opts = append(opts, agent.WithDescription(ac.Description))
	}
	if ac.Instructions != "" {
		opts = append(opts, agent.WithInstructions(ac.Instructions))
	}
	if ac.Temperature != nil {
		opts = append(opts, agent.WithTemperature(*ac.Temperature))
	}
	if ac.MaxTokens > 0 {
		opts = append(opts, agent.WithMaxTokens(ac.MaxTokens))
	}
	if ac.InlineToolProtocol {
		opts = append(opts, agent.WithInlineToolProtocol(true))
	}
	if len(ac.Tools) > 0 {
		builtins := make([]tool.Tool, 0, len(ac.Tools))
		for _, name := range ac.Tools {
			builtins = append(builtins, builtinTools[name]())
		}
		opts = append(opts, agent.WithTools(builtins...))
	}

	return opts
}

func buildLogger(lc LoggingConfig) logging.Logger {
	return logging.NewSlogLogger(logging.ParseLogLevel(lc.Level), lc.Format, false)
}
