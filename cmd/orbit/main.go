package main

import (
	"os"

	"github.com/mwhite/orbit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
