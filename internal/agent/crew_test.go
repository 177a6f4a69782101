package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestCrew_KickoffRunsSingleTask(t *testing.T) {
	llm := &stubLLM{response: "SELECT 1"}
	a := &Agent{Role: "Architect", LLM: llm}
	task := &Task{Description: "generate SQL", Agent: a}
	crew := &Crew{Tasks: []*Task{task}, Process: ProcessSequential}

	out, err := crew.Kickoff(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", out)
	assert.Equal(t, 1, llm.calls)
}

func TestCrew_KickoffRespectsDependencies(t *testing.T) {
	archLLM := &stubLLM{response: "SELECT * FROM orders"}
	criticLLM := &stubLLM{response: "looks valid"}

	architect := &Agent{Role: "Architect", LLM: archLLM}
	critic := &Agent{Role: "Critic", LLM: criticLLM}

	genTask := &Task{Description: "generate SQL", Agent: architect}
	reviewTask := &Task{Description: "review SQL", Agent: critic, DependsOn: []*Task{genTask}}

	crew := &Crew{Tasks: []*Task{reviewTask, genTask}, Process: ProcessSequential}

	out, err := crew.Kickoff(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "looks valid", out)

	genOut, done := genTask.Output()
	require.True(t, done)
	assert.Equal(t, "SELECT * FROM orders", genOut)
}

func TestCrew_KickoffDetectsCycle(t *testing.T) {
	a := &Agent{Role: "X", LLM: &stubLLM{}}
	t1 := &Task{Description: "t1", Agent: a}
	t2 := &Task{Description: "t2", Agent: a, DependsOn: []*Task{t1}}
	t1.DependsOn = []*Task{t2}

	crew := &Crew{Tasks: []*Task{t1, t2}}
	_, err := crew.Kickoff(context.Background())
	assert.Error(t, err)
}

func TestCrew_KickoffPropagatesAgentError(t *testing.T) {
	failing := &stubLLM{err: fmt.Errorf("provider unavailable")}
	a := &Agent{Role: "Architect", LLM: failing}
	task := &Task{Description: "generate SQL", Agent: a}
	crew := &Crew{Tasks: []*Task{task}}

	_, err := crew.Kickoff(context.Background())
	assert.Error(t, err)
}

func TestAgent_FindTool(t *testing.T) {
	tool := Tool{Name: "search", Description: "search the web"}
	a := Agent{Tools: []Tool{tool}}

	found, ok := a.FindTool("search")
	require.True(t, ok)
	assert.Equal(t, "search the web", found.Description)

	_, ok = a.FindTool("missing")
	assert.False(t, ok)
}
