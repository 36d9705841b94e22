// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package cli implements the evsim command line.
//
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// RootOptions holds the global flags.
//
type RootOptions struct {
	Verbose bool
	Format  string

	log *slog.Logger
}

// Logger returns the logger configured from the global flags.
//
func (o *RootOptions) Logger() *slog.Logger {
	if o.log == nil {
		return slog.Default()
	}
	return o.log
}

// NewRootCommand creates the evsim command.
//
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "evsim",
		Short: "Replay test scenarios against simulated devices",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.Format {
			case "text", "json":
			default:
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be text or json", opts.Format))
			}
			opts.log = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	return cmd
}

// newLogger returns a text logger if w is a terminal, a JSON logger otherwise.
//
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	ho := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		ho.Level = slog.LevelDebug
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, ho))
	}
	return slog.New(slog.NewJSONHandler(w, ho))
}
