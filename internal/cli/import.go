package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/casewright/casewright/internal/importer"
	"github.com/casewright/casewright/internal/ir"
)

// ImportResult is the import command's success payload.
type ImportResult struct {
	Case     *ir.CaseIR `json:"case"`
	Hash     string     `json:"hash"`
	Warnings []string   `json:"warnings,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "import <document.bpmn>",
		Short: "Import a BPMN document into a case file",
		Long: `Import a BPMN/Camunda-7 process document and write the resulting
case file as JSON. Structural ambiguity (no subprocess boundaries, no
recognizable tasks) produces warnings, not failures.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], outPath, cmd)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output case file (default: stdout)")
	return cmd
}

func runImport(opts *RootOptions, path, outPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		formatter.Error("E001", fmt.Sprintf("reading %s: %v", path, err), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	result, err := importer.Import(data, path)
	if err != nil {
		var pe *importer.ParseError
		if errors.As(err, &pe) {
			formatter.Error(pe.Code, pe.Message, nil)
			return WrapExitError(ExitFailure, "import failed", err)
		}
		formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitFailure, "import failed", err)
	}

	for _, w := range result.Warnings {
		formatter.VerboseLog("warning: %s", w)
	}

	hash, err := ir.DocumentHash(result.Case)
	if err != nil {
		return WrapExitError(ExitCommandError, "hashing document", err)
	}

	if outPath != "" {
		if err := WriteCase(result.Case, outPath, formatter); err != nil {
			return WrapExitError(ExitCommandError, "writing output", err)
		}
		if opts.Format == "json" {
			return formatter.Success(ImportResult{Hash: hash, Warnings: result.Warnings})
		}
		return formatter.Success(fmt.Sprintf("imported %s -> %s (hash %s)", path, outPath, hash[:12]))
	}

	if opts.Format == "json" {
		return formatter.Success(ImportResult{
			Case:     result.Case,
			Hash:     hash,
			Warnings: result.Warnings,
		})
	}
	return WriteCase(result.Case, "", formatter)
}
