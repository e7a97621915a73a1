package tactile_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autousb/internal/tactile"
	"autousb/internal/tactile/tactiletest"
)

func TestAuditedExecutorRecordsOutcomes(t *testing.T) {
	fake := tactiletest.NewExecutor(func(cmd tactile.Command) (*tactile.ExecutionResult, error) {
		switch cmd.Binary {
		case "ok":
			return &tactile.ExecutionResult{ExitCode: 0, Duration: time.Second}, nil
		case "bad":
			return &tactile.ExecutionResult{ExitCode: 2, Stderr: "boom", Duration: time.Second}, nil
		}
		return nil, errors.New("exec: not found")
	})

	logger := tactile.NewAuditLogger()
	var mu sync.Mutex
	var seen []tactile.AuditEventType
	logger.AddCallback(func(e tactile.AuditEvent) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type)
	})
	exec := tactile.NewAuditedExecutor(fake, logger)
	require.Same(t, logger, exec.Logger())

	ctx := context.Background()
	_, err := exec.Execute(ctx, tactile.Command{Binary: "ok"})
	require.NoError(t, err)
	_, err = exec.Execute(ctx, tactile.Command{Binary: "bad"})
	require.NoError(t, err)
	_, err = exec.Execute(ctx, tactile.Command{Binary: "missing"})
	require.Error(t, err)

	assert.Equal(t, []tactile.AuditEventType{
		tactile.AuditEventStart, tactile.AuditEventComplete,
		tactile.AuditEventStart, tactile.AuditEventComplete,
		tactile.AuditEventStart, tactile.AuditEventError,
	}, seen)

	m := logger.Metrics()
	assert.Equal(t, int64(3), m.Total)
	assert.Equal(t, int64(1), m.Successful)
	assert.Equal(t, int64(2), m.Failed)
	assert.Equal(t, 2*time.Second, m.Duration)
	assert.Equal(t, int64(1), m.ByBinary["bad"])
}

func TestAuditedExecutorKilled(t *testing.T) {
	fake := tactiletest.NewExecutor(tactiletest.Exit(0, "", ""))
	logger := tactile.NewAuditLogger()
	exec := tactile.NewAuditedExecutor(fake, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := exec.Execute(ctx, tactile.Command{Binary: "slow"})
	require.NoError(t, err)
	require.True(t, res.Killed)

	assert.Equal(t, int64(1), logger.Metrics().Killed)
}
