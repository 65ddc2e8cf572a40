package main

import (
	"os"

	"plumcave/tui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
