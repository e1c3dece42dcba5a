package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/use-agent/reviewscope/scraper"
)

// NewSelectorsCmd creates the selectors command group.
func NewSelectorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selectors",
		Short: "Inspect and validate selector sets",
		Long: `Selectors map each page role (feed entry, review item, author, ...) to a
CSS selector. When the target site changes its markup, write a YAML file
of overrides and point REVIEWSCOPE_SELECTORS_FILE or --selectors at it.`,
	}
	cmd.AddCommand(newSelectorsDefaultsCmd())
	cmd.AddCommand(newSelectorsValidateCmd())
	return cmd
}

func newSelectorsDefaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the built-in selector set as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := scraper.DefaultSelectors().Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newSelectorsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a selector override file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := scraper.LoadSelectorSet(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, role := range set.Roles() {
				sel := set[role]
				switch {
				case sel.Attr != "" && sel.CSS != "":
					fmt.Fprintf(w, "%-24s %s @%s\n", role, sel.CSS, sel.Attr)
				case sel.Attr != "":
					fmt.Fprintf(w, "%-24s @%s\n", role, sel.Attr)
				default:
					fmt.Fprintf(w, "%-24s %s\n", role, sel.CSS)
				}
			}
			fmt.Fprintf(w, "ok: %d roles\n", len(set))
			return nil
		},
	}
}
