package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaintainer_EmptySchedule(t *testing.T) {
	f := newFixture(t, DriverPureGo)

	m := NewMaintainer(f.store)
	require.NoError(t, m.Start(context.Background()))
	assert.False(t, m.IsRunning())
	assert.Nil(t, m.NextRun())
}

func TestMaintainer_InvalidSchedule(t *testing.T) {
	f := newFixture(t, DriverPureGo)
	f.store.config.AnalyzeSchedule = "every tuesday"

	m := NewMaintainer(f.store)
	assert.Error(t, m.Start(context.Background()))
}

func TestMaintainer_StartStop(t *testing.T) {
	f := newFixture(t, DriverPureGo)
	f.store.config.AnalyzeSchedule = "0 3 * * *"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMaintainer(f.store)
	require.NoError(t, m.Start(ctx))
	assert.True(t, m.IsRunning())
	assert.NotNil(t, m.NextRun())

	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestMaintainer_Analyze(t *testing.T) {
	f := newFixture(t, DriverPureGo)

	m := NewMaintainer(f.store)
	assert.True(t, m.LastRun().IsZero())
	require.NoError(t, m.Analyze(context.Background()))
	assert.False(t, m.LastRun().IsZero())
}
