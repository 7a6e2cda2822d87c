//go:build unix

package main

import (
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNotifyTrigger(t *testing.T) {
	ch := make(chan os.Signal, 1)
	notifyTrigger(ch)
	t.Cleanup(func() { signal.Stop(ch) })

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	select {
	case sig := <-ch:
		require.Equal(t, syscall.SIGUSR1, sig)
	case <-time.After(5 * time.Second):
		t.Fatal("SIGUSR1 not delivered")
	}
}
