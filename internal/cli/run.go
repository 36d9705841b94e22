// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/scenario"
	"github.com/db47h/evsim/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RunOptions holds the flags of the run command.
//
type RunOptions struct {
	*RootOptions
	Database string
}

// NewRunCommand creates the run command.
//
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>...",
		Short: "Run scenarios",
		Long: `Run scenario files against their device and print a report for each.

Arguments are scenario files or directories. All the .yaml and .yml files of a
directory are run in file name order.

Exit codes:
  0 - All scenarios passed
  1 - At least one scenario failed or faulted
  2 - Command error (unreadable scenario, unknown device, database error)

Examples:
  evsim run scenarios/mac_spst_tiny.yaml
  evsim run --db history.db --format json scenarios/`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.Database, "db", "", "save reports to this SQLite database")
	return cmd
}

type runResult struct {
	Scenario string `json:"scenario"`
	Path     string `json:"path,omitempty"`
	*evsim.Report
}

func loadScenarios(args []string) ([]*scenario.Scenario, error) {
	var out []*scenario.Scenario
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			sc, err := scenario.Load(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, sc)
			continue
		}
		scs, err := scenario.LoadDir(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, scs...)
	}
	if len(out) == 0 {
		return nil, errors.Errorf("no scenario found in %v", args)
	}
	return out, nil
}

func runScenarios(cmd *cobra.Command, opts *RunOptions, args []string) error {
	log := opts.Logger()
	scs, err := loadScenarios(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}

	var st *store.Store
	if opts.Database != "" {
		if st, err = store.Open(opts.Database); err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if err := st.Close(); err != nil {
				log.Error("error closing database", "error", err)
			}
		}()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	failed := 0
	for _, sc := range scs {
		log.Debug("running scenario", "scenario", sc.Name, "path", sc.Path)
		r, err := scenario.Run(ctx, sc, evsim.WithLogger(log.With("scenario", sc.Name)))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to run scenario "+sc.Name, err)
		}
		log.Info("scenario done", "scenario", sc.Name, "verdict", r.Verdict, "end", r.EndTime)
		if !r.Passed() {
			failed++
		}
		if st != nil {
			if err := st.SaveReport(ctx, sc.Name, r); err != nil {
				return WrapExitError(ExitCommandError, "failed to save report", err)
			}
		}
		if err := writeResult(out, opts.Format, runResult{Scenario: sc.Name, Path: sc.Path, Report: r}); err != nil {
			return WrapExitError(ExitCommandError, "failed to write report", err)
		}
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", failed, len(scs)))
	}
	return nil
}

func writeResult(w io.Writer, format string, r runResult) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(r)
	}
	fmt.Fprintf(w, "scenario %s\n", r.Scenario)
	if err := r.WriteText(w); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
