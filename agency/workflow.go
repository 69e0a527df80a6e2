package agency

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/agentswarm/workflow"
)

// CreateWorkflow validates and registers a workflow. Every step must
// name a registered agent; agent existence is checked again at
// execution time, since agents can be removed in between.
func (a *Agency) CreateWorkflow(name string, steps []workflow.Step) (*workflow.Workflow, error) {
	wf, err := workflow.New(name, steps)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.workflows[name]; exists {
		return nil, &workflow.ValidationError{Workflow: name, Reason: "workflow already registered"}
	}
	for _, s := range wf.Steps() {
		if _, ok := a.agents[s.Agent]; !ok {
			return nil, &workflow.ValidationError{
				Workflow: name,
				Reason:   fmt.Sprintf("step %q names an unregistered agent", s.Agent),
			}
		}
	}
	a.workflows[name] = wf

	a.logger.Info("workflow registered", "workflow", name, "steps", len(steps))

	return wf, nil
}

// Workflow returns the registered workflow with the given name.
func (a *Agency) Workflow(name string) (*workflow.Workflow, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	wf, ok := a.workflows[name]
	return wf, ok
}

// Workflows returns the registered workflow names in sorted order.
func (a *Agency) Workflows() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.workflows))
	for name := range a.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExecuteWorkflow runs the named workflow's execution plan sequentially,
// each step on a fresh thread. A step's message joins its instructions,
// the initial input (when requested) and its dependencies' results,
// separated by blank lines. Returns agent name to output.
func (a *Agency) ExecuteWorkflow(ctx context.Context, name, input string) (map[string]string, error) {
	a.mu.RLock()
	wf, ok := a.workflows[name]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("workflow %q not found", name)
	}

	plan := wf.ExecutionPlan()
	results := make(map[string]string, len(plan))

	a.logger.Info("workflow started", "workflow", name, "steps", len(plan))

	for _, step := range plan {
		a.mu.Lock()
		ag, ok := a.agents[step.Agent]
		if !ok {
			a.mu.Unlock()
			return results, fmt.Errorf("workflow %q: agent %q no longer registered", name, step.Agent)
		}
		th := a.newThreadLocked(ag)
		a.mu.Unlock()

		out, err := th.Process(ctx, stepMessage(step, input, results))
		if err != nil {
			return results, fmt.Errorf("workflow %q step %q: %w", name, step.Agent, err)
		}
		results[step.Agent] = out
	}

	a.logger.Info("workflow completed", "workflow", name)

	return results, nil
}

func stepMessage(step workflow.Step, input string, results map[string]string) string {
	var parts []string

	if step.Instructions != "" {
		parts = append(parts, step.Instructions)
	}
	if step.UseInitialInput {
		parts = append(parts, "Input: "+input)
	}
	for _, dep := range step.InputFrom {
		if out, ok := results[dep]; ok {
			parts = append(parts, fmt.Sprintf("%s result: %s", dep, out))
		}
	}

	return strings.Join(parts, "\n\n")
}
