//go:build !unix

package main

import "os"

// notifyTrigger does nothing; passes only follow server.interval here.
func notifyTrigger(chan<- os.Signal) {}
