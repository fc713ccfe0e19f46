package main

import (
	"fmt"
	"os"

	"dbbenchtools/cmd/dbbenchctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
