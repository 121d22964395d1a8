package commands

import (
	stderrors "errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tsparse/tsparse/internal/cli/ui"
	"github.com/tsparse/tsparse/internal/compiler/cache"
	"github.com/tsparse/tsparse/internal/compiler/errors"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
)

func newCheckCommand(e *env) *cobra.Command {
	var (
		grammarPath string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "check [files or directories...]",
		Short: "Report parse errors without printing trees",
		Long: `Parse every file and report a diagnostic for each one that fails.

Directories are searched recursively for files matching watch.patterns.
Without arguments the configured input is checked. The exit status is
non-zero when any file fails.`,
		Example: `  tsparse check src/
  tsparse check --json a.ts b.ts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{e.cfg.Input}
			}

			paths, err := expandPaths(args, e.cfg.Watch.Patterns)
			if err != nil {
				return err
			}

			p, err := e.newParser(grammarPath)
			if err != nil {
				return err
			}

			results, metrics := cache.NewCoordinator(p).ParseFiles(paths, true)

			var diags errors.ErrorList
			failed := 0
			for _, r := range results {
				if r.Err == nil {
					continue
				}
				failed++

				var failure *grammar.Failure
				if !stderrors.As(r.Err, &failure) {
					ui.WriteError(cmd.ErrOrStderr(), ui.ErrorOptions{
						Context: r.Path,
						Problem: r.Err.Error(),
						NoColor: e.noColor,
					})
					continue
				}

				diag := errors.FromFailure(failure).WithFile(r.Path)
				diags = append(diags, diag)
				if !asJSON {
					fmt.Fprintln(cmd.ErrOrStderr(), ui.Diagnostic(diag, e.noColor))
				}
			}

			if asJSON {
				if diags == nil {
					diags = errors.ErrorList{}
				}
				out, err := diags.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			} else {
				summary := ui.NewKeyValueTable(cmd.OutOrStdout(), e.noColor)
				summary.AddRow("Files", strconv.Itoa(metrics.TotalFiles))
				summary.AddRow("Failed", strconv.Itoa(failed))
				summary.AddRow("Duration", metrics.TotalDuration.String())
				summary.Render()
			}

			if failed > 0 {
				return reported("%d of %d files failed to parse", failed, len(results))
			}
			if !asJSON {
				ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d file(s) parsed", len(results)), e.noColor)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&grammarPath, "grammar", "", "grammar file to parse with instead of the configured one")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write diagnostics as a JSON array to stdout")

	return cmd
}

// expandPaths replaces each directory argument with the files under it that
// match patterns. File arguments are kept as given, matching or not.
func expandPaths(args, patterns []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		files, err := cache.ScanDirectory(arg, patterns)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
		paths = append(paths, files...)
	}
	return paths, nil
}
