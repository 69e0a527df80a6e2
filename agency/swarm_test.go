package agency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Discussion Tests --------------------

func TestAgency_Discuss(t *testing.T) {
	a, mock := newMockAgency(t)

	_, err := a.AddAgent("alpha", "mock-large")
	require.NoError(t, err)
	_, err = a.AddAgent("beta", "mock-large")
	require.NoError(t, err)

	mock.EnqueueMessage("A1")
	mock.EnqueueMessage("B1")
	mock.EnqueueMessage("A2")
	mock.EnqueueMessage("B2")

	turns, err := a.Discuss(context.Background(), "Should we rewrite the backend?", 2)
	require.NoError(t, err)
	require.Len(t, turns, 4)

	assert.Equal(t, Turn{Round: 1, Agent: "alpha", Response: "A1"}, turns[0])
	assert.Equal(t, Turn{Round: 1, Agent: "beta", Response: "B1"}, turns[1])
	assert.Equal(t, Turn{Round: 2, Agent: "alpha", Response: "A2"}, turns[2])
	assert.Equal(t, Turn{Round: 2, Agent: "beta", Response: "B2"}, turns[3])

	reqs := mock.Requests()
	require.Len(t, reqs, 4)

	// Round one puts the raw topic to everyone.
	assert.Equal(t, "Should we rewrite the backend?", reqs[0].Input)
	assert.Equal(t, "Should we rewrite the backend?", reqs[1].Input)
	assert.Empty(t, reqs[0].History)
	assert.Empty(t, reqs[1].History)

	// Round two replays the previous round's responses.
	wantContext := "Previous responses:\n- A1\n- B1\n\nWhat are your thoughts on the discussion so far?"
	assert.Equal(t, wantContext, reqs[2].Input)
	assert.Equal(t, wantContext, reqs[3].Input)

	// Each participant keeps its own thread, so round two carries that
	// agent's round-one exchange as history.
	require.Len(t, reqs[2].History, 2)
	assert.Equal(t, "Should we rewrite the backend?", reqs[2].History[0].Content)
	assert.Equal(t, "A1", reqs[2].History[1].Content)

	require.Len(t, reqs[3].History, 2)
	assert.Equal(t, "B1", reqs[3].History[1].Content)
}

func TestAgency_DiscussSingleRoundFloor(t *testing.T) {
	a, mock := newMockAgency(t)

	_, err := a.AddAgent("alpha", "mock-large")
	require.NoError(t, err)

	mock.EnqueueMessage("only take")

	turns, err := a.Discuss(context.Background(), "topic", 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, 1, turns[0].Round)
}

func TestAgency_DiscussRequiresAgents(t *testing.T) {
	a, _ := newMockAgency(t)

	_, err := a.Discuss(context.Background(), "topic", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no agents registered")
}

// -------------------- Broadcast Tests --------------------

func TestAgency_Broadcast(t *testing.T) {
	a, mock := newMockAgency(t)

	_, err := a.AddAgent("alpha", "mock-large")
	require.NoError(t, err)
	_, err = a.AddAgent("beta", "mock-large")
	require.NoError(t, err)

	mock.EnqueueMessage("ack from alpha")
	mock.EnqueueMessage("ack from beta")

	responses, err := a.Broadcast(context.Background(), "status report, please")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"alpha": "ack from alpha",
		"beta":  "ack from beta",
	}, responses)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "status report, please", reqs[0].Input)
	assert.Equal(t, "status report, please", reqs[1].Input)

	// Broadcasts never share threads, so a second one starts clean.
	mock.EnqueueMessage("again alpha")
	mock.EnqueueMessage("again beta")

	_, err = a.Broadcast(context.Background(), "second round")
	require.NoError(t, err)

	reqs = mock.Requests()
	require.Len(t, reqs, 4)
	assert.Empty(t, reqs[2].History)
	assert.Empty(t, reqs[3].History)
}

func TestAgency_BroadcastRequiresAgents(t *testing.T) {
	a, _ := newMockAgency(t)

	_, err := a.Broadcast(context.Background(), "anyone?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no agents registered")
}
