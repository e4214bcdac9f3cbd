// Command haru-search serves relevance-ranked search over companions,
// users, messages and checkpoints through HTTP, MCP or the terminal.
package main

import (
	"os"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
