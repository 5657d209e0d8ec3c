package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTask struct {
	name     string
	interval time.Duration
	err      error
	runs     atomic.Int32
}

func (t *countingTask) Run(ctx context.Context) error {
	t.runs.Add(1)
	return t.err
}

func (t *countingTask) Interval() time.Duration { return t.interval }
func (t *countingTask) Name() string            { return t.name }

func TestScheduler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		task    *countingTask
		minRuns int32
		maxRuns int32
	}{
		{
			name:    "runs immediately and on the interval",
			task:    &countingTask{name: "fast", interval: 20 * time.Millisecond},
			minRuns: 3,
			maxRuns: 100,
		},
		{
			name:    "errors do not stop the task",
			task:    &countingTask{name: "failing", interval: 20 * time.Millisecond, err: errors.New("boom")},
			minRuns: 3,
			maxRuns: 100,
		},
		{
			name:    "zero interval is never run",
			task:    &countingTask{name: "disabled"},
			minRuns: 0,
			maxRuns: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(context.Background(), logger)
			s.AddTask(tt.task)
			s.Start()

			if tt.minRuns > 0 {
				require.Eventually(t, func() bool { return tt.task.runs.Load() >= tt.minRuns }, 2*time.Second, 5*time.Millisecond)
			} else {
				time.Sleep(50 * time.Millisecond)
			}
			s.Stop()

			runs := tt.task.runs.Load()
			assert.GreaterOrEqual(t, runs, tt.minRuns)
			assert.LessOrEqual(t, runs, tt.maxRuns)

			// No runs after Stop returns.
			time.Sleep(50 * time.Millisecond)
			assert.Equal(t, runs, tt.task.runs.Load())
		})
	}
}

func TestScheduler_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := &countingTask{name: "t", interval: time.Hour}
	s := New(ctx, nil)
	s.AddTask(task)
	s.Start()

	require.Eventually(t, func() bool { return task.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
