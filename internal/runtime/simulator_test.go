package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimulatorLifecycle(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulator()

	h, err := sim.Create(ctx, ContainerOptions{Name: "rorg__base_roscore"})
	require.NoError(t, err)
	require.Equal(t, "rorg__base_roscore", h.Name)

	_, err = sim.Create(ctx, ContainerOptions{Name: "rorg__base_roscore"})
	require.Error(t, err)

	got, ok, err := sim.Get(ctx, h.Name)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, h, got)

	require.False(t, sim.IsStarted(h.Name))
	require.NoError(t, sim.Start(ctx, h))
	require.True(t, sim.IsStarted(h.Name))
	require.NoError(t, sim.Stop(ctx, h))
	require.False(t, sim.IsStarted(h.Name))

	require.NoError(t, sim.Remove(ctx, h, false))
	_, ok, err = sim.Get(ctx, h.Name)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSimulatorStatsUnsupported(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulator()
	h, err := sim.Create(ctx, ContainerOptions{Name: "x"})
	require.NoError(t, err)
	_, err = sim.Stats(ctx, h)
	require.Error(t, err)
}
