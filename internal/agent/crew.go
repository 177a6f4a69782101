package agent

import (
	"context"
	"fmt"
	"strings"

	"sqlsentry/internal/logging"
)

// Crew is an ordered list of Tasks run under a Process. Kickoff respects
// each Task's DependsOn list — a task only runs once every dependency
// has produced output — then returns the final task's textual output.
type Crew struct {
	Tasks   []*Task
	Process Process
}

// Kickoff executes every task respecting dependencies and returns the
// output of the task that runs last in dependency order. Tasks are
// topologically ordered by DependsOn. Under both processes each task's
// prompt carries only the outputs of its own DependsOn tasks; no task
// receives a digest of tasks it does not depend on.
func (c *Crew) Kickoff(ctx context.Context) (string, error) {
	order, err := topoSort(c.Tasks)
	if err != nil {
		return "", fmt.Errorf("agent: crew kickoff: %w", err)
	}

	for _, task := range order {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := c.runTask(ctx, task); err != nil {
			return "", fmt.Errorf("agent: task %q failed: %w", task.Description, err)
		}
	}

	if len(order) == 0 {
		return "", nil
	}
	final := order[len(order)-1]
	out, _ := final.Output()
	return out, nil
}

func (c *Crew) runTask(ctx context.Context, task *Task) error {
	if task.Agent == nil {
		return fmt.Errorf("task has no assigned agent")
	}

	system := fmt.Sprintf("You are the %s. Goal: %s. Backstory: %s", task.Agent.Role, task.Agent.Goal, task.Agent.Backstory)
	user := task.Description
	if c.Process == ProcessHierarchical {
		user = user + "\n\n" + digestOfDependencies(task)
	} else if digest := digestOfDependencies(task); digest != "" {
		user = user + "\n\n" + digest
	}
	user = user + "\n\nExpected output: " + task.ExpectedOutput

	logging.AgentDebug("running task for role=%s: %.80s", task.Agent.Role, task.Description)
	output, err := task.Agent.LLM.Complete(ctx, system, user, 0, 0)
	if err != nil {
		return err
	}

	task.output = output
	task.done = true
	return nil
}

func digestOfDependencies(task *Task) string {
	if len(task.DependsOn) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Prior task outputs:\n")
	for _, dep := range task.DependsOn {
		out, done := dep.Output()
		if !done {
			continue
		}
		b.WriteString("- ")
		b.WriteString(dep.Description)
		b.WriteString(": ")
		b.WriteString(out)
		b.WriteString("\n")
	}
	return b.String()
}

// topoSort orders tasks so every DependsOn entry precedes its dependent,
// detecting cycles.
func topoSort(tasks []*Task) ([]*Task, error) {
	visited := make(map[*Task]int, len(tasks)) // 0=unvisited 1=visiting 2=done
	var order []*Task

	var visit func(t *Task) error
	visit = func(t *Task) error {
		switch visited[t] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("dependency cycle detected at task %q", t.Description)
		}
		visited[t] = 1
		for _, dep := range t.DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visited[t] = 2
		order = append(order, t)
		return nil
	}

	for _, t := range tasks {
		if err := visit(t); err != nil {
			return nil, err
		}
	}
	return order, nil
}
