// Command baroctl is an offline companion to barocast-agent. It replays
// recorded pressure series through the forecast engine and prints the
// classification tables without a running server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fail(os.Stderr, err.Error())
		os.Exit(1)
	}
}
