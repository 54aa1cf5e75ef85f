package main

import (
	"os"

	"github.com/conntrace-systems/conntrace/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
