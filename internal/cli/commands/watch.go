package commands

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tsparse/tsparse/internal/cli/ui"
	"github.com/tsparse/tsparse/internal/compiler/cache"
	"github.com/tsparse/tsparse/internal/compiler/errors"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
	"github.com/tsparse/tsparse/internal/watch"
)

func newWatchCommand(e *env) *cobra.Command {
	var (
		grammarPath string
		printTrees  bool
	)

	cmd := &cobra.Command{
		Use:   "watch [files or directories...]",
		Short: "Re-parse files whenever they change",
		Long: `Parse the given files, then parse them again each time they are saved.

Directories are watched recursively for files matching watch.patterns;
changes within watch.debounce of each other are parsed as one batch.
Without arguments the working directory is watched. Press Ctrl+C to stop.`,
		Example: `  tsparse watch
  tsparse watch --print src/ lib/
  tsparse watch a.ts b.ts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := e.newParser(grammarPath)
			if err != nil {
				return err
			}

			opts, initial, err := e.watchOptions(args)
			if err != nil {
				return err
			}

			out := &lockedWriter{w: cmd.OutOrStdout()}
			report := func(results []*cache.ParseResult, _ *cache.ParseMetrics) {
				for _, r := range results {
					out.write(formatResult(r, printTrees, e.noColor))
				}
			}

			session, err := watch.NewSession(cache.NewCoordinator(p), opts, nil, report)
			if err != nil {
				return err
			}

			color.New(color.FgCyan, color.Bold).Fprintf(cmd.ErrOrStderr(),
				"Watching %d file(s), press Ctrl+C to stop\n", len(initial))

			if err := session.Start(initial); err != nil {
				return err
			}
			<-ctx.Done()
			return session.Stop()
		},
	}

	cmd.Flags().StringVar(&grammarPath, "grammar", "", "grammar file to parse with instead of the configured one")
	cmd.Flags().BoolVar(&printTrees, "print", false, "print the S-expression of every parsed expression")

	return cmd
}

// watchOptions splits args into watched roots and files, defaulting to the
// working directory, and returns the files to parse up front.
func (e *env) watchOptions(args []string) (watch.Options, []string, error) {
	opts := watch.Options{
		Patterns: e.cfg.Watch.Patterns,
		Ignored:  e.cfg.Watch.Ignored,
		Debounce: e.cfg.Watch.Debounce,
		Logger:   e.logger,
	}
	if len(args) == 0 {
		args = []string{"."}
	}

	var initial []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return opts, nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			opts.Files = append(opts.Files, arg)
			initial = append(initial, arg)
			continue
		}

		opts.Roots = append(opts.Roots, arg)
		files, err := cache.ScanDirectory(arg, opts.Patterns)
		if err != nil {
			return opts, nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
		initial = append(initial, files...)
	}

	if len(opts.Roots) > 0 && len(opts.Files) > 0 {
		return opts, nil, stderrors.New("watch either directories or files, not both")
	}
	return opts, initial, nil
}

func formatResult(r *cache.ParseResult, printTrees, noColor bool) string {
	var failure *grammar.Failure
	switch {
	case r.Err == nil:
		msg := fmt.Sprintf("%s: %d expression(s)", r.Path, len(r.Exprs))
		if r.Cached {
			msg += " (cached)"
		}
		s := ui.FormatSuccess(msg, noColor) + "\n"
		if printTrees {
			for _, e := range r.Exprs {
				s += "    " + e.String() + "\n"
			}
		}
		return s

	case stderrors.As(r.Err, &failure):
		return ui.Diagnostic(errors.FromFailure(failure).WithFile(r.Path), noColor)

	default:
		return ui.FormatError(ui.ErrorOptions{Context: r.Path, Problem: r.Err.Error(), NoColor: noColor})
	}
}

// lockedWriter serializes writes from the watcher's callback goroutine
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) write(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, s)
}
