package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsparse/tsparse/internal/lsp"
	"github.com/tsparse/tsparse/internal/tooling"
)

func newLSPCommand(e *env) *cobra.Command {
	var grammarPath string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the tsparse Language Server Protocol (LSP) server.

The server parses every open document on change and provides:
  • Diagnostics for parse errors
  • Hover information for expressions
  • Document symbols, one per top-level expression

It communicates via JSON-RPC over stdin/stdout and is typically started by
your editor. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := e.newParser(grammarPath)
			if err != nil {
				return err
			}

			server := lsp.NewServer(tooling.NewAPI(p), e.logger)
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&grammarPath, "grammar", "", "grammar file to parse with instead of the configured one")
	return cmd
}
