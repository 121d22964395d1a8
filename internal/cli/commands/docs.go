package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tsparse/tsparse/internal/cli/ui"
	"github.com/tsparse/tsparse/internal/docs"
)

func newDocsCommand(e *env) *cobra.Command {
	var (
		grammarPath string
		format      string
		outputDir   string
	)

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate a reference for the grammar",
		Long: `Generate a reference document for the grammar: its operators with an
example parse of each, the categories it produces, sample programs showing
precedence and grouping, and the grammar text itself.

Without --output the document is written to standard output.`,
		Example: `  tsparse docs
  tsparse docs --format html --output site/
  tsparse docs --grammar custom.peg --output docs/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			allowed := make([]string, len(docs.Formats))
			for i, f := range docs.Formats {
				allowed[i] = string(f)
			}
			if !slices.Contains(allowed, format) {
				fmt.Fprint(cmd.ErrOrStderr(), ui.InvalidValue("--format", format, allowed, "tsparse docs --help", e.noColor))
				return reported("invalid --format %q", format)
			}

			p, err := e.newParser(grammarPath)
			if err != nil {
				return err
			}
			ref := docs.NewExtractor(p).Extract()

			if outputDir == "" {
				return docs.Write(cmd.OutOrStdout(), ref, docs.Format(format))
			}

			path, err := docs.Generate(ref, docs.Format(format), outputDir)
			if err != nil {
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(), "Wrote "+path, e.noColor)
			return nil
		},
	}

	cmd.Flags().StringVar(&grammarPath, "grammar", "", "grammar file to document instead of the configured one")
	cmd.Flags().StringVarP(&format, "format", "f", string(docs.FormatMarkdown), "output format (markdown, html)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory to write the document into")

	return cmd
}
