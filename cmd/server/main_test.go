package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSuperviseRestartsUntilSuccess(t *testing.T) {
	calls := 0
	err := supervise(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("listen failed")
		}
		return nil
	}, time.Millisecond)

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestSuperviseStopsAfterSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	shutdownErr := errors.New("server.Shutdown: context deadline exceeded")

	calls := 0
	err := supervise(ctx, func(context.Context) error {
		calls++
		// the signal arrives while the server is draining
		cancel()
		return shutdownErr
	}, time.Millisecond)

	require.ErrorIs(t, err, shutdownErr)
	require.Equal(t, 1, calls, "no restart once the process was told to stop")
}

func TestSuperviseStopsWhileWaitingToRestart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- supervise(ctx, func(context.Context) error {
			calls++
			return errors.New("listen failed")
		}, time.Hour)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		require.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("supervise did not return after cancellation")
	}
}
