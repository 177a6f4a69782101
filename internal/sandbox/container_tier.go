package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"sqlsentry/internal/logging"
)

// ContainerTier executes analytics code in a fresh, network-disabled
// compute container — Tier A of spec.md §4.5. No container-orchestration
// library appears anywhere in the retrieval pack, so this shells out to
// the configured container runtime directly via os/exec, the way
// spec.md §4.5 describes the tier (see DESIGN.md).
type ContainerTier struct {
	runtime   string // "docker" or "podman"
	image     string
	memoryMB  int
	timeout   time.Duration
	workspace string
}

// ContainerConfig configures Tier A.
type ContainerConfig struct {
	Runtime        string
	Image          string
	MemoryLimitMB  int
	TimeoutSeconds int
	Workspace      string // base directory for per-run ephemeral workspaces
}

// NewContainerTier builds Tier A from cfg, applying spec.md §5's
// defaults (30s wall clock, 512 MiB) when unset.
func NewContainerTier(cfg ContainerConfig) *ContainerTier {
	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	memory := cfg.MemoryLimitMB
	if memory <= 0 {
		memory = 512
	}
	runtime := cfg.Runtime
	if runtime == "" {
		runtime = "docker"
	}
	workspace := cfg.Workspace
	if workspace == "" {
		workspace = os.TempDir()
	}
	return &ContainerTier{runtime: runtime, image: cfg.Image, memoryMB: memory, timeout: timeout, workspace: workspace}
}

func (t *ContainerTier) Tier() Tier { return TierContainer }

// Probe reports whether the configured container runtime binary is
// reachable on PATH and responsive, used by Sandbox's construction-time
// selection (spec.md §4.5: "probes for Tier A availability").
func (t *ContainerTier) Probe(ctx context.Context) error {
	if _, err := exec.LookPath(t.runtime); err != nil {
		return fmt.Errorf("container runtime %q not found on PATH: %w", t.runtime, err)
	}
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(probeCtx, t.runtime, "info")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("container runtime %q not responsive: %w", t.runtime, err)
	}
	return nil
}

// Run materializes inputs as CSV files in an ephemeral, read-only-mounted
// workspace, runs code in a network-disabled/memory-capped container,
// and extracts its JSON-encoded result. The container removes itself on
// exit (`--rm`). Violations, timeouts, and non-zero exits all return
// success=false with a classified error, never an exception.
func (t *ContainerTier) Run(ctx context.Context, code string, inputs map[string]Tabular) Result {
	workDir, err := os.MkdirTemp(t.workspace, "sqlsentry-sandbox-*")
	if err != nil {
		return Result{Success: false, Error: "failed to create ephemeral workspace: " + err.Error(), TierUsed: TierContainer}
	}
	defer os.RemoveAll(workDir)

	if err := writeInputsAsCSV(workDir, inputs); err != nil {
		return Result{Success: false, Error: err.Error(), TierUsed: TierContainer}
	}
	codePath := filepath.Join(workDir, "analysis.go")
	if err := os.WriteFile(codePath, []byte(code), 0o644); err != nil {
		return Result{Success: false, Error: "failed to stage analysis code: " + err.Error(), TierUsed: TierContainer}
	}

	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	args := []string{
		"run", "--rm",
		"--network=none",
		fmt.Sprintf("--memory=%dm", t.memoryMB),
		"-v", fmt.Sprintf("%s:/workspace:ro", workDir),
		t.image,
		"/workspace/analysis.go",
	}
	cmd := exec.CommandContext(runCtx, t.runtime, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.SandboxDebug("container run: %s %v", t.runtime, args)
	err = cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return Result{Success: false, Error: "sandbox execution timed out", TierUsed: TierContainer}
	}
	if err != nil {
		return Result{Success: false, Error: "container execution failed: " + classifyContainerError(stderr.String(), err), Output: stderr.String(), TierUsed: TierContainer}
	}

	var payload struct {
		Result        any    `json:"result"`
		Visualization any    `json:"visualization"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &payload); err != nil {
		// A container that printed nothing JSON-shaped still succeeded;
		// surface stdout as Output per spec.md's no-`result` boundary case.
		return Result{Success: true, Output: stdout.String(), TierUsed: TierContainer}
	}
	return Result{Success: true, Result: payload.Result, Visualization: payload.Visualization, Output: stdout.String(), TierUsed: TierContainer}
}

func classifyContainerError(stderr string, err error) string {
	if stderr != "" {
		return stderr
	}
	return err.Error()
}

func writeInputsAsCSV(workDir string, inputs map[string]Tabular) error {
	for name, tbl := range inputs {
		path := filepath.Join(workDir, name+".csv")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("writing input table %s: %w", name, err)
		}
		var b bytes.Buffer
		writeCSVRow(&b, toAnySlice(tbl.Columns))
		for _, row := range tbl.Rows {
			writeCSVRow(&b, row)
		}
		if _, err := f.Write(b.Bytes()); err != nil {
			f.Close()
			return fmt.Errorf("writing input table %s: %w", name, err)
		}
		f.Close()
	}
	return nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func writeCSVRow(b *bytes.Buffer, row []any) {
	for i, v := range row {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, "%v", v)
	}
	b.WriteByte('\n')
}
