package main

import (
	"fmt"
	"os"

	"github.com/apictx-dev/apictx/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "apictx: %v\n", err)
		os.Exit(1)
	}
}
