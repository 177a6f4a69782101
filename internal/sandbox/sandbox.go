package sandbox

import (
	"context"

	"sqlsentry/internal/logging"
)

// Mode selects (or auto-selects) which tier backs a Sandbox.
type Mode string

const (
	ModeContainer  Mode = "container"
	ModeRestricted Mode = "restricted"
	ModeAuto       Mode = "auto"
)

// Sandbox is the CodeSandbox entry point: it probes for Tier A
// availability at construction time and uses Tier B on explicit config
// or, in auto mode, when the probe fails, logging the choice. In
// container mode a failed probe leaves no tier active instead of
// degrading to Tier B.
type Sandbox struct {
	active Runner
}

// New selects a tier according to mode and container, logging the
// decision. container is only probed when mode is "container" or "auto".
func New(mode Mode, container *ContainerTier) *Sandbox {
	switch mode {
	case ModeRestricted:
		logging.Sandbox("sandbox tier selected: restricted (explicit config)")
		return &Sandbox{active: NewRestrictedTier()}
	case ModeContainer:
		if err := container.Probe(context.Background()); err != nil {
			logging.Sandbox("container tier requested but unavailable (%v); deployment must opt into restricted explicitly — refusing to silently downgrade", err)
			return &Sandbox{active: nil}
		}
		logging.Sandbox("sandbox tier selected: container (explicit config)")
		return &Sandbox{active: container}
	default: // ModeAuto
		if container != nil {
			if err := container.Probe(context.Background()); err == nil {
				logging.Sandbox("sandbox tier selected: container (auto-probe succeeded)")
				return &Sandbox{active: container}
			} else {
				logging.Sandbox("container tier unavailable (%v); auto-falling back to restricted", err)
			}
		}
		logging.Sandbox("sandbox tier selected: restricted (auto fallback)")
		return &Sandbox{active: NewRestrictedTier()}
	}
}

// Run executes code against inputs using the selected tier.
func (s *Sandbox) Run(ctx context.Context, code string, inputs map[string]Tabular) Result {
	if s.active == nil {
		return Result{Success: false, Error: "no sandbox tier available: container runtime unreachable and restricted mode was not explicitly requested"}
	}
	return s.active.Run(ctx, code, inputs)
}

// ActiveTier reports which tier is currently backing this Sandbox.
func (s *Sandbox) ActiveTier() Tier {
	if s.active == nil {
		return ""
	}
	return s.active.Tier()
}
