package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/snoopflow/snoopflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
