// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command evsim runs test scenarios against simulated devices.
//
package main

import (
	"fmt"
	"os"

	"github.com/db47h/evsim/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "evsim:", err)
		os.Exit(cli.ExitCode(err))
	}
}
