// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/store"
	"github.com/spf13/cobra"
)

// HistoryOptions holds the flags of the history command.
//
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Findings bool
}

// NewHistoryCommand creates the history command.
//
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved sessions",
		Long: `List the sessions saved by "evsim run --db", most recent first.

Examples:
  evsim history --db history.db
  evsim history --db history.db --limit 5 --findings`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of sessions, 0 for all")
	cmd.Flags().BoolVar(&opts.Findings, "findings", false, "list the findings of each session")
	return cmd
}

type historyEntry struct {
	store.Session
	Findings []evsim.Finding `json:"findings,omitempty"`
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	ss, err := st.Sessions(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}
	entries := make([]historyEntry, len(ss))
	for i := range ss {
		entries[i].Session = ss[i]
		if !opts.Findings {
			continue
		}
		if entries[i].Findings, err = st.Findings(ctx, ss[i].ID); err != nil {
			return WrapExitError(ExitCommandError, "failed to read findings", err)
		}
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return json.NewEncoder(out).Encode(entries)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tSCENARIO\tDEVICE\tVERDICT\tEND\tFAIL\tWARN\tID")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%v\t%d\t%d\t%s\n",
			e.CreatedAt.Format(time.DateTime), e.Scenario, e.Device, e.Verdict, e.EndTime, e.Failures, e.Warnings, e.ID)
		for _, f := range e.Findings {
			fmt.Fprintf(tw, "\t%s\n", f)
		}
	}
	return tw.Flush()
}
