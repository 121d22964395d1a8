package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingPruner struct {
	calls atomic.Int32
}

func (p *countingPruner) Prune(context.Context) (int64, error) {
	p.calls.Add(1)
	return 0, nil
}

func TestPruneScheduler_Runs(t *testing.T) {
	pruner := &countingPruner{}
	s := NewPruneScheduler(pruner, zaptest.NewLogger(t))
	defer s.Stop()

	require.NoError(t, s.Start(context.Background(), "@every 1s"))
	assert.True(t, s.IsRunning())
	assert.False(t, s.NextRun().IsZero())

	require.Eventually(t, func() bool { return pruner.calls.Load() > 0 }, 3*time.Second, 20*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.True(t, s.NextRun().IsZero())
}

func TestPruneScheduler_InvalidSchedule(t *testing.T) {
	s := NewPruneScheduler(&countingPruner{}, nil)

	err := s.Start(context.Background(), "every minute")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid prune schedule "every minute"`)
	assert.False(t, s.IsRunning())
}

func TestPruneScheduler_EmptyScheduleDisables(t *testing.T) {
	s := NewPruneScheduler(&countingPruner{}, nil)

	require.NoError(t, s.Start(context.Background(), ""))
	assert.False(t, s.IsRunning())
}

func TestPruneScheduler_StopsWithContext(t *testing.T) {
	s := NewPruneScheduler(&countingPruner{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx, "0 3 * * *"))
	assert.Error(t, s.Start(ctx, "0 4 * * *"))

	cancel()
	require.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 5*time.Millisecond)
}
