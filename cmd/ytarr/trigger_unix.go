//go:build unix

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyTrigger relays SIGUSR1 to ch.
func notifyTrigger(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGUSR1)
}
