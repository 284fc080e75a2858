package main

import (
	"os"

	"github.com/shoplist/api/internal/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
