package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSandbox_ExplicitRestrictedModeNeverProbesContainer(t *testing.T) {
	sb := New(ModeRestricted, nil)
	assert.Equal(t, TierRestricted, sb.ActiveTier())
}

func TestSandbox_AutoFallsBackWhenContainerUnavailable(t *testing.T) {
	container := NewContainerTier(ContainerConfig{Runtime: "definitely-not-a-real-runtime-binary"})
	sb := New(ModeAuto, container)
	assert.Equal(t, TierRestricted, sb.ActiveTier())
}

func TestSandbox_ExplicitContainerModeRefusesToSilentlyDowngrade(t *testing.T) {
	container := NewContainerTier(ContainerConfig{Runtime: "definitely-not-a-real-runtime-binary"})
	sb := New(ModeContainer, container)
	assert.Equal(t, Tier(""), sb.ActiveTier())

	out := sb.Run(context.Background(), "var result any", nil)
	assert.False(t, out.Success)
}
