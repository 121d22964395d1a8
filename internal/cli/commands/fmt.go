package commands

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tsparse/tsparse/internal/cli/ui"
	"github.com/tsparse/tsparse/internal/compiler/errors"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
	"github.com/tsparse/tsparse/internal/format"
)

func newFormatCommand(e *env) *cobra.Command {
	var (
		grammarPath string
		write       bool
		check       bool
		unified     bool
	)

	cmd := &cobra.Command{
		Use:     "fmt [files or directories...]",
		Aliases: []string{"format"},
		Short:   "Format expression files",
		Long: `Rewrite expression files in canonical form: one expression per line,
single spaces around binary operators and parentheses kept where written.
Expressions longer than format.line_width are broken before their outermost
operators. Formatting never changes the parsed syntax tree.

By default a diff preview is shown and no file is modified. "-" formats
standard input to standard output.`,
		Example: `  tsparse fmt                 # preview changes to the configured input
  tsparse fmt --write src/    # format and save every matching file
  tsparse fmt --check .       # exit non-zero if anything needs formatting
  echo "1+2" | tsparse fmt -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := e.newParser(grammarPath)
			if err != nil {
				return err
			}
			formatter := format.New(p, &e.cfg.Format)

			if len(args) == 1 && args[0] == stdinName {
				source, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				out, err := formatter.Format(string(source))
				if err != nil {
					return formatFailure(cmd, e, "<stdin>", err)
				}
				_, err = io.WriteString(cmd.OutOrStdout(), out)
				return err
			}

			if len(args) == 0 {
				args = []string{e.cfg.Input}
			}
			files, err := expandPaths(args, e.cfg.Watch.Patterns)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			title := color.New(color.FgCyan, color.Bold)
			if e.noColor {
				title.DisableColor()
			}
			changed, failed := 0, 0

			for _, file := range files {
				original, err := os.ReadFile(file)
				if err != nil {
					ui.WriteError(cmd.ErrOrStderr(), ui.ErrorOptions{Context: file, Problem: err.Error(), NoColor: e.noColor})
					failed++
					continue
				}

				formatted, err := formatter.Format(string(original))
				if err != nil {
					formatFailure(cmd, e, file, err)
					failed++
					continue
				}

				diff := format.Diff(string(original), formatted)
				if !diff.Changed {
					if !check {
						ui.WriteSuccess(out, file+" (no changes)", e.noColor)
					}
					continue
				}
				changed++

				switch {
				case check:
					ui.WriteError(cmd.ErrOrStderr(), ui.ErrorOptions{
						Level:   ui.ErrorLevelWarning,
						Problem: file + " needs formatting",
						NoColor: e.noColor,
					})
				case write:
					if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
						return fmt.Errorf("failed to write %s: %w", file, err)
					}
					ui.WriteSuccess(out, file+" formatted", e.noColor)
				case unified:
					fmt.Fprint(out, diff.UnifiedDiff(file))
				default:
					title.Fprintf(out, "\n=== %s ===\n", file)
					fmt.Fprint(out, diff.String())
					fmt.Fprintf(out, "%s\n", diff.Stats())
				}
			}

			if !write && !check && !unified && changed > 0 {
				title.Fprintln(out, "\nRun 'tsparse fmt --write' to apply changes")
			}

			switch {
			case failed > 0:
				return reported("%d file(s) could not be formatted", failed)
			case check && changed > 0:
				return reported("%d file(s) need formatting", changed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&grammarPath, "grammar", "", "grammar file to parse with instead of the configured one")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write formatted output to files")
	cmd.Flags().BoolVarP(&check, "check", "c", false, "exit non-zero if any file is not formatted")
	cmd.Flags().BoolVarP(&unified, "diff", "d", false, "print changes as a unified diff")
	cmd.MarkFlagsMutuallyExclusive("write", "check", "diff")

	return cmd
}

// formatFailure reports err for name and returns an error for the caller
func formatFailure(cmd *cobra.Command, e *env, name string, err error) error {
	var failure *grammar.Failure
	if stderrors.As(err, &failure) {
		fmt.Fprint(cmd.ErrOrStderr(), ui.Diagnostic(errors.FromFailure(failure).WithFile(name), e.noColor))
	} else {
		ui.WriteError(cmd.ErrOrStderr(), ui.ErrorOptions{Context: name, Problem: err.Error(), NoColor: e.noColor})
	}
	return reported("%s: cannot format", name)
}
