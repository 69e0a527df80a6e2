// Package workflow defines named, validated DAGs of agent steps. A
// workflow is always valid: construction and every mutation re-run full
// validation, and a mutation that would break the graph is rejected with
// the workflow left unchanged.
package workflow

import (
	"fmt"
	"strings"
	"sync"
)

// Step binds one workflow node to an agent. Requires orders execution
// without passing data; InputFrom additionally feeds the named steps'
// outputs into this step's message. Both count as dependency edges.
type Step struct {
	Agent           string   `yaml:"agent" json:"agent"`
	Instructions    string   `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	InputFrom       []string `yaml:"input_from,omitempty" json:"input_from,omitempty"`
	UseInitialInput bool     `yaml:"use_initial_input,omitempty" json:"use_initial_input,omitempty"`
	Requires        []string `yaml:"requires,omitempty" json:"requires,omitempty"`
}

// ValidationError reports why a workflow definition is invalid.
type ValidationError struct {
	Workflow string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("workflow %q invalid: %s", e.Workflow, e.Reason)
}

// Workflow is a named DAG of steps, safe for concurrent use.
type Workflow struct {
	name string

	mu    sync.RWMutex
	steps []Step
}

// New validates the steps and builds a workflow. The steps are copied;
// later changes to the caller's slice do not affect the workflow.
func New(name string, steps []Step) (*Workflow, error) {
	copied := copySteps(steps)
	if err := validate(name, copied); err != nil {
		return nil, err
	}
	return &Workflow{name: name, steps: copied}, nil
}

// Name returns the workflow name.
func (w *Workflow) Name() string { return w.name }

// Steps returns a copy of the steps in declaration order.
func (w *Workflow) Steps() []Step {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return copySteps(w.steps)
}

// Step returns the step bound to the named agent.
func (w *Workflow) Step(agentName string) (Step, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, s := range w.steps {
		if s.Agent == agentName {
			return copyStep(s), true
		}
	}
	return Step{}, false
}

// AddStep appends a step. If the resulting graph would be invalid the
// step is rejected and the workflow left unchanged.
func (w *Workflow) AddStep(step Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := append(copySteps(w.steps), copyStep(step))
	if err := validate(w.name, next); err != nil {
		return err
	}
	w.steps = next

	return nil
}

// RemoveStep removes the step bound to the named agent and reports
// whether it existed. A removal that would strand remaining steps (or
// empty the workflow) is rejected with the workflow left unchanged.
func (w *Workflow) RemoveStep(agentName string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := make([]Step, 0, len(w.steps))
	removed := false
	for _, s := range w.steps {
		if s.Agent == agentName {
			removed = true
			continue
		}
		next = append(next, s)
	}
	if !removed {
		return false, nil
	}
	if err := validate(w.name, next); err != nil {
		return false, err
	}
	w.steps = next

	return true, nil
}

// ExecutionPlan returns the steps in a deterministic topological order:
// dependencies always precede their dependents, and declaration order
// breaks ties. Validation keeps the graph acyclic, so a plan always
// exists.
func (w *Workflow) ExecutionPlan() []Step {
	w.mu.RLock()
	defer w.mu.RUnlock()

	index := make(map[string]int, len(w.steps))
	for i, s := range w.steps {
		index[s.Agent] = i
	}

	visited := make(map[string]bool, len(w.steps))
	plan := make([]Step, 0, len(w.steps))

	var visit func(i int)
	visit = func(i int) {
		s := w.steps[i]
		if visited[s.Agent] {
			return
		}
		visited[s.Agent] = true

		for _, dep := range dependencies(s) {
			visit(index[dep])
		}
		plan = append(plan, copyStep(s))
	}

	for i := range w.steps {
		visit(i)
	}

	return plan
}

// dependencies lists a step's dependency edges in declared order,
// Requires before InputFrom, duplicates dropped.
func dependencies(s Step) []string {
	seen := make(map[string]struct{}, len(s.Requires)+len(s.InputFrom))
	deps := make([]string, 0, len(s.Requires)+len(s.InputFrom))

	for _, list := range [][]string{s.Requires, s.InputFrom} {
		for _, dep := range list {
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			deps = append(deps, dep)
		}
	}

	return deps
}

func validate(name string, steps []Step) error {
	if len(steps) == 0 {
		return &ValidationError{Workflow: name, Reason: "at least one step required"}
	}

	byAgent := make(map[string]Step, len(steps))
	for _, s := range steps {
		if s.Agent == "" {
			return &ValidationError{Workflow: name, Reason: "step with empty agent name"}
		}
		if _, dup := byAgent[s.Agent]; dup {
			return &ValidationError{Workflow: name, Reason: fmt.Sprintf("duplicate step for agent %q", s.Agent)}
		}
		byAgent[s.Agent] = s
	}

	for _, s := range steps {
		for _, dep := range s.Requires {
			if dep == s.Agent {
				return &ValidationError{Workflow: name, Reason: fmt.Sprintf("step %q depends on itself", s.Agent)}
			}
			if _, ok := byAgent[dep]; !ok {
				return &ValidationError{Workflow: name, Reason: fmt.Sprintf("step %q requires unknown step %q", s.Agent, dep)}
			}
		}
		for _, src := range s.InputFrom {
			if src == s.Agent {
				return &ValidationError{Workflow: name, Reason: fmt.Sprintf("step %q takes input from itself", s.Agent)}
			}
			if _, ok := byAgent[src]; !ok {
				return &ValidationError{Workflow: name, Reason: fmt.Sprintf("step %q takes input from unknown step %q", s.Agent, src)}
			}
		}
	}

	return detectCycle(name, steps, byAgent)
}

func detectCycle(name string, steps []Step, byAgent map[string]Step) error {
	const (
		unvisited = iota
		inPath
		done
	)

	state := make(map[string]int, len(steps))
	var path []string

	var visit func(agent string) error
	visit = func(agent string) error {
		switch state[agent] {
		case inPath:
			start := 0
			for i, n := range path {
				if n == agent {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), agent)
			return &ValidationError{
				Workflow: name,
				Reason:   "dependency cycle: " + strings.Join(cycle, " -> "),
			}
		case done:
			return nil
		}

		state[agent] = inPath
		path = append(path, agent)

		for _, dep := range dependencies(byAgent[agent]) {
			if err := visit(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		state[agent] = done

		return nil
	}

	for _, s := range steps {
		if err := visit(s.Agent); err != nil {
			return err
		}
	}

	return nil
}

func copyStep(s Step) Step {
	s.InputFrom = append([]string(nil), s.InputFrom...)
	s.Requires = append([]string(nil), s.Requires...)
	return s
}

func copySteps(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = copyStep(s)
	}
	return out
}
