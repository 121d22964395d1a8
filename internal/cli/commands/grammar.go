package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsparse/tsparse/internal/cli/ui"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
	"github.com/tsparse/tsparse/internal/docs"
)

func newGrammarCommand(e *env) *cobra.Command {
	var (
		grammarPath string
		rules       bool
		rule        string
	)

	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "Print the grammar in effect",
		Long: `Print the text of the grammar tsparse parses with: the embedded default,
or the one named by --grammar or the grammar config key. Loading a grammar
also validates it, so this doubles as a grammar checker.`,
		Example: `  tsparse grammar
  tsparse grammar --rules
  tsparse grammar --grammar custom.peg --rule factor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := e.newParser(grammarPath)
			if err != nil {
				return err
			}
			g := p.Grammar()
			out := cmd.OutOrStdout()

			switch {
			case rule != "":
				return describeRule(cmd, e, g, rule)

			case rules:
				table := ui.NewTable(out, e.noColor, "RULE", "KIND")
				for _, r := range g.Categories() {
					table.AddRow(r.String(), docs.Kind(r))
				}
				table.Render()

			default:
				fmt.Fprint(out, g.Source())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&grammarPath, "grammar", "", "grammar file to load instead of the configured one")
	cmd.Flags().BoolVar(&rules, "rules", false, "list the node categories the grammar produces")
	cmd.Flags().StringVar(&rule, "rule", "", "show whether the grammar produces the named category")

	return cmd
}

func describeRule(cmd *cobra.Command, e *env, g *grammar.Grammar, name string) error {
	r, ok := grammar.LookupRule(name)
	if !ok || !g.Has(r) {
		var names []string
		for _, c := range g.Categories() {
			names = append(names, c.String())
		}
		fmt.Fprint(cmd.ErrOrStderr(), ui.InvalidValue("rule", name, names, "tsparse grammar --rules", e.noColor))
		return reported("grammar %s has no rule %q", g.Name(), name)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r, docs.Kind(r))
	return nil
}
