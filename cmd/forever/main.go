// forever supervises a child process, restarting it whenever it exits.
// A child that dies too quickly gets a growing backoff so a broken
// binary does not spin the machine.
package main

import (
	"log"
	"os"
	"os/exec"
	"time"
)

const (
	minUptime  = 30 * time.Second
	maxBackoff = 5 * time.Minute
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <command> [args...]", os.Args[0])
	}
	name := os.Args[1]
	args := os.Args[2:]

	backoff := time.Second
	for {
		start := time.Now()
		cmd := exec.Command(name, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Stdin = os.Stdin

		log.Printf("forever: starting %s", name)
		err := cmd.Run()
		uptime := time.Since(start)
		log.Printf("forever: %s exited after %s: %v", name, uptime.Round(time.Second), err)

		if uptime >= minUptime {
			backoff = time.Second
		} else {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
		log.Printf("forever: restarting in %s", backoff)
		time.Sleep(backoff)
	}
}
