// Package agent implements the minimal Agent/Task/Crew/Tool/LLMInterface
// runtime described in spec.md §4.6 and §9: plain data, no decorator or
// metaclass-style framework. It exists to give internal/healing a
// vocabulary for "consult agent A with tools T about task X" — all
// intelligence lives in prompts, not in this package. Ported from the
// teacher's internal/tools/types.go + internal/tools/registry.go (Tool)
// and internal/core/llm_client.go (LLMInterface).
package agent

import "context"

// Tool is a capability an Agent can invoke by name.
type Tool struct {
	Name        string
	Description string
	Invoke      func(ctx context.Context, args map[string]any) (string, error)
}

// LLMInterface is the minimal surface internal/agent and its callers
// need from an LLM backend, mirroring the teacher's core.LLMClient.
type LLMInterface interface {
	Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)
}

// Agent bundles a role/goal/backstory with a tool set and an LLM backend.
// "Personality" is entirely the prompt bundle Complete is called with —
// Agent has no reasoning of its own.
type Agent struct {
	Role      string
	Goal      string
	Backstory string
	Tools     []Tool
	LLM       LLMInterface
}

// FindTool returns the named tool, if the agent has it.
func (a Agent) FindTool(name string) (Tool, bool) {
	for _, t := range a.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Process selects how a Crew walks its Task list.
type Process string

const (
	ProcessSequential  Process = "sequential"
	ProcessHierarchical Process = "hierarchical"
)

// Task is one unit of work assigned to an Agent, optionally depending on
// the completion of other Tasks.
type Task struct {
	Description    string
	ExpectedOutput string
	Agent          *Agent
	DependsOn      []*Task

	output string
	done   bool
}

// Output returns the task's completed output and whether it has run.
func (t *Task) Output() (string, bool) { return t.output, t.done }
