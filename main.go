package main

import (
	"os"

	"github.com/hooch88/serene/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
