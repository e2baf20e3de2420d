// Command batchsim runs, tests and serves the debounced inventory batcher.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Jujulu67/djlarian-react-sub002/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
