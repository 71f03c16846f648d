package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casewright/casewright/internal/ir"
	"github.com/casewright/casewright/internal/patch"
	"github.com/casewright/casewright/internal/store"
)

// EditResult is the edit command's success payload.
type EditResult struct {
	Hash       string `json:"hash"`
	ParentHash string `json:"parent_hash"`
	Ops        int    `json:"ops"`
	RevisionID string `json:"revision_id,omitempty"`
}

// NewEditCommand creates the edit command. This is the single mutation
// path: every change to a case file goes through a patch batch, applied
// atomically.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		patchPath string
		outPath   string
		auditPath string
		summary   string
	)

	cmd := &cobra.Command{
		Use:   "edit <case.json>",
		Short: "Apply a patch batch to a case file",
		Long: `Apply an ordered batch of add/remove/replace/move/copy/test operations
to a case file. The batch is all-or-nothing: any failing operation leaves
the file untouched. With --audit, each applied batch is recorded in the
revision log with the document hashes before and after.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(rootOpts, args[0], patchPath, outPath, auditPath, summary, cmd)
		},
	}

	cmd.Flags().StringVarP(&patchPath, "patch", "p", "", "patch file, JSON or YAML (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output case file (default: overwrite input)")
	cmd.Flags().StringVar(&auditPath, "audit", "", "revision log database; records the applied batch")
	cmd.Flags().StringVar(&summary, "summary", "", "human summary for the revision log entry")
	cmd.MarkFlagRequired("patch")
	return cmd
}

func runEdit(opts *RootOptions, casePath, patchPath, outPath, auditPath, summary string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	doc, err := LoadCase(casePath)
	if err != nil {
		formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading case", err)
	}

	ops, err := LoadOperations(patchPath)
	if err != nil {
		formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading patch", err)
	}

	parentHash, err := ir.DocumentHash(doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "hashing document", err)
	}

	result, err := patch.Apply(doc, ops)
	if err != nil {
		var pe *patch.Error
		if errors.As(err, &pe) {
			formatter.Error(string(pe.Code), pe.Message, map[string]any{
				"op_index": pe.OpIndex,
				"path":     pe.Path,
			})
			return WrapExitError(ExitFailure, "patch rejected", err)
		}
		formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitFailure, "patch failed", err)
	}

	resultHash, err := ir.DocumentHash(result)
	if err != nil {
		return WrapExitError(ExitCommandError, "hashing result", err)
	}

	if outPath == "" {
		outPath = casePath
	}
	if err := WriteCase(result, outPath, formatter); err != nil {
		return WrapExitError(ExitCommandError, "writing output", err)
	}

	out := EditResult{
		Hash:       resultHash,
		ParentHash: parentHash,
		Ops:        len(ops),
	}

	if auditPath != "" {
		revID, err := recordRevision(cmd.Context(), auditPath, result.ID, parentHash, resultHash, ops, summary)
		if err != nil {
			return WrapExitError(ExitCommandError, "recording revision", err)
		}
		out.RevisionID = revID
		formatter.VerboseLog("recorded revision %s", revID)
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	return formatter.Success(fmt.Sprintf("applied %d op(s): %s -> %s", len(ops), parentHash[:12], resultHash[:12]))
}

// recordRevision appends one row to the revision log.
func recordRevision(ctx context.Context, dbPath, caseID, parentHash, resultHash string, ops []patch.Operation, summary string) (string, error) {
	opsJSON, err := json.Marshal(ops)
	if err != nil {
		return "", err
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	seq, err := db.NextSeq(ctx, caseID)
	if err != nil {
		return "", err
	}

	rev := store.Revision{
		ID:         store.NewRevisionID(),
		CaseID:     caseID,
		Seq:        seq,
		ParentHash: parentHash,
		ResultHash: resultHash,
		Ops:        string(opsJSON),
		Summary:    summary,
	}
	if err := db.RecordRevision(ctx, rev); err != nil {
		return "", err
	}
	return rev.ID, nil
}
