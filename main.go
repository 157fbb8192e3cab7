// The main package for the feedbot executable.
package main

import (
	"github.com/paperwheel/arxiv-feed-bot/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
