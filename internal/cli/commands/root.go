// Package commands implements the tsparse command line.
package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsparse/tsparse/internal/cli/config"
	"github.com/tsparse/tsparse/internal/cli/logging"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// env carries the persistent flags and what PersistentPreRunE derives from
// them. Every subcommand reads its configuration through it.
type env struct {
	configPath string
	logLevel   string
	noColor    bool

	cfg    *config.Config
	logger *zap.Logger
}

func (e *env) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = e.logLevel
	}
	if e.noColor {
		cfg.Output.Color = false
	}
	e.noColor = !cfg.Output.Color
	if e.noColor {
		color.NoColor = true
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.logger = logger
	return nil
}

// reportedError marks a failure whose details were already written
type reportedError struct {
	msg string
}

func (e *reportedError) Error() string { return e.msg }

func reported(format string, args ...interface{}) error {
	return &reportedError{msg: fmt.Sprintf(format, args...)}
}

// NewRootCommand creates the root command. Without a subcommand it parses
// the configured input file and prints its AST.
func NewRootCommand() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "tsparse",
		Short: "Expression parser for a TypeScript-like language",
		Long: `tsparse parses equality, comparison, arithmetic and unary expressions over
number and boolean literals into a syntax tree.

The grammar is a PEG supplied as data; the embedded default can be replaced
with --grammar. Without a subcommand tsparse parses the configured input
file (test.ts by default) and prints the tree.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, e, &parseOptions{}, nil)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&e.configPath, "config", "", "config file (default ./tsparse.yml)")
	flags.StringVar(&e.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&e.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newParseCommand(e))
	rootCmd.AddCommand(newCheckCommand(e))
	rootCmd.AddCommand(newGrammarCommand(e))
	rootCmd.AddCommand(newFormatCommand(e))
	rootCmd.AddCommand(newDocsCommand(e))
	rootCmd.AddCommand(newWatchCommand(e))
	rootCmd.AddCommand(newServeCommand(e))
	rootCmd.AddCommand(newLSPCommand(e))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the tsparse version, Git commit, build date, and Go version",
		Args:  cobra.NoArgs,
		// version needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "tsparse version: ")
			fmt.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		var done *reportedError
		if !errors.As(err, &done) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
