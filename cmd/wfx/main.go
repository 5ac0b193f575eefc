package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

func main() {
	log.SetOutput(os.Stderr)
	if os.Getenv("WFX_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "wfx error:", err)
		os.Exit(1)
	}
}

func run() error {
	return newRootCommand().Execute()
}
