package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casewright/casewright/internal/store"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var auditPath string

	cmd := &cobra.Command{
		Use:   "history <case-id>",
		Short: "Show a case's revision log",
		Long: `List every recorded patch batch for a case in application order, with
the document hashes before and after each one.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], auditPath, cmd)
		},
	}

	cmd.Flags().StringVar(&auditPath, "audit", "", "revision log database (required)")
	cmd.MarkFlagRequired("audit")
	return cmd
}

func runHistory(opts *RootOptions, caseID, auditPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	db, err := store.Open(auditPath)
	if err != nil {
		formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening revision log", err)
	}
	defer db.Close()

	revisions, err := db.ListRevisions(cmd.Context(), caseID)
	if err != nil {
		formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "listing revisions", err)
	}

	if opts.Format == "json" {
		return formatter.Success(revisions)
	}

	if len(revisions) == 0 {
		return formatter.Success(fmt.Sprintf("no revisions for %s", caseID))
	}
	for _, rev := range revisions {
		line := fmt.Sprintf("%3d  %s  %.12s -> %.12s", rev.Seq, rev.CreatedAt, rev.ParentHash, rev.ResultHash)
		if rev.Summary != "" {
			line += "  " + rev.Summary
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}
