package main

import (
	"os"

	"github.com/calmren/atelier/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
