package agency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agentswarm/agent"
	"github.com/hupe1980/agentswarm/thread"
)

// Turn is one agent's contribution to a discussion.
type Turn struct {
	Round    int
	Agent    string
	Response string
}

// Discuss runs a round-robin discussion: every agent answers the topic
// in round one, then in later rounds reacts to the previous round's
// responses. Agents take turns in name order and each keeps its own
// thread across rounds, so everything lands in the trace. Fewer than one
// round means one.
func (a *Agency) Discuss(ctx context.Context, topic string, rounds int) ([]Turn, error) {
	if rounds < 1 {
		rounds = 1
	}

	participants, err := a.participants()
	if err != nil {
		return nil, err
	}

	threads := make(map[string]*thread.Thread, len(participants))
	a.mu.Lock()
	for _, p := range participants {
		threads[p.Name()] = a.newThreadLocked(p)
	}
	a.mu.Unlock()

	a.logger.Info("discussion started",
		"topic", topic, "rounds", rounds, "participants", len(participants))

	var turns []Turn
	var prev []string

	for round := 1; round <= rounds; round++ {
		message := topic
		if round > 1 {
			message = discussionContext(prev)
		}

		current := make([]string, 0, len(participants))
		for _, p := range participants {
			out, err := threads[p.Name()].Process(ctx, message)
			if err != nil {
				return turns, fmt.Errorf("discussion round %d, agent %q: %w", round, p.Name(), err)
			}
			turns = append(turns, Turn{Round: round, Agent: p.Name(), Response: out})
			current = append(current, out)
		}
		prev = current
	}

	return turns, nil
}

// Broadcast sends the message to every agent independently, each on a
// fresh thread, and returns agent name to response. Agents answer in
// name order so trace output is stable.
func (a *Agency) Broadcast(ctx context.Context, message string) (map[string]string, error) {
	participants, err := a.participants()
	if err != nil {
		return nil, err
	}

	responses := make(map[string]string, len(participants))
	for _, p := range participants {
		a.mu.Lock()
		th := a.newThreadLocked(p)
		a.mu.Unlock()

		out, err := th.Process(ctx, message)
		if err != nil {
			return responses, fmt.Errorf("broadcast to %q: %w", p.Name(), err)
		}
		responses[p.Name()] = out
	}

	return responses, nil
}

// participants snapshots the registered agents in name order.
func (a *Agency) participants() ([]*agent.Agent, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.agents) == 0 {
		return nil, errors.New("no agents registered")
	}

	out := make([]*agent.Agent, 0, len(a.agents))
	for _, name := range a.agentNamesLocked() {
		out = append(out, a.agents[name])
	}
	return out, nil
}

func discussionContext(prev []string) string {
	var b strings.Builder

	b.WriteString("Previous responses:\n")
	for _, r := range prev {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	b.WriteString("\nWhat are your thoughts on the discussion so far?")

	return b.String()
}
