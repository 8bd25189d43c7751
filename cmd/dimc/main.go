package main

import (
	"os"

	"github.com/dimc-lang/dimc/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
