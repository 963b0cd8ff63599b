package main

import (
	"os"

	"github.com/gridhub/aggcoord/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
