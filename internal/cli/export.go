package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/casewright/casewright/internal/exporter"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <case.json>",
		Short: "Export a case file back to a BPMN document",
		Long: `Serialize a case file to BPMN/Camunda-7 XML. A captured original
diagram is re-emitted verbatim; without one the layout is computed
deterministically from the document's structure.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, args[0], outPath, cmd)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output BPMN file (default: stdout)")
	return cmd
}

func runExport(opts *RootOptions, path, outPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	doc, err := LoadCase(path)
	if err != nil {
		formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading case", err)
	}

	out, err := exporter.Export(doc)
	if err != nil {
		var ie *exporter.InconsistencyError
		if errors.As(err, &ie) {
			formatter.Error(ie.Code, ie.Message, ie.Path)
			return WrapExitError(ExitFailure, "export rejected", err)
		}
		formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitFailure, "export failed", err)
	}

	if outPath == "" || outPath == "-" {
		_, err := formatter.Writer.Write(out)
		return err
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return WrapExitError(ExitCommandError, "writing output", err)
	}
	if opts.Format == "json" {
		return formatter.Success(map[string]any{"out": outPath, "bytes": len(out)})
	}
	return formatter.Success(fmt.Sprintf("exported %s -> %s (%d bytes)", path, outPath, len(out)))
}
