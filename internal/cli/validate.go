package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/casewright/casewright/internal/ir"
	"github.com/casewright/casewright/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                 `json:"valid"`
	Errors []ir.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <case.json>",
		Short: "Validate a case file",
		Long: `Validate a case file against the structural rules and the document
schema. Every violation is collected and reported; the command fails when
any is found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		formatter.Error("E001", fmt.Sprintf("reading %s: %v", path, err), nil)
		return WrapExitError(ExitCommandError, "reading case", err)
	}

	// The schema pass works on the raw bytes so that malformed documents
	// are reported even when they never decode into the Go types.
	violations := schema.Validate(data)

	if doc, loadErr := LoadCase(path); loadErr == nil {
		violations = append(violations, ir.Validate(doc)...)
	}

	if len(violations) > 0 {
		if opts.Format == "json" {
			formatter.Success(ValidationResult{Valid: false, Errors: violations})
		} else {
			for _, v := range violations {
				fmt.Fprintf(formatter.Writer, "%s\n", v.Error())
			}
			fmt.Fprintf(formatter.Writer, "%d error(s)\n", len(violations))
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(violations)))
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	return formatter.Success("valid")
}
