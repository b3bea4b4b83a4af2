package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newListCmd creates the `list` command, which prints the scenario catalog.
func newListCmd() *cobra.Command {
	var verbose bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lists the available verification scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tUPLOAD\tWAITS\tSCREENSHOT\tDESCRIPTION")
			for _, s := range catalog.All() {
				upload := "-"
				if s.Upload != nil {
					upload = s.Upload.Fixture
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.Name, upload, len(s.Waits), s.Screenshot, s.Description)
				if !verbose {
					continue
				}
				for _, w := range s.Waits {
					fmt.Fprintf(tw, "\t  wait\t%s\t\t\n", w)
				}
				if in := s.Interaction; in != nil {
					fmt.Fprintf(tw, "\t  type\t%q into %s every %s\t\t\n", in.Text, in.Selector, in.KeyDelay)
				}
				if a := s.Assertion; a != nil {
					fmt.Fprintf(tw, "\t  expect\t%s contains %q\t\t\n", a.Selector, a.Contains)
				}
			}
			return tw.Flush()
		},
	}

	listCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show waits, interactions and assertions.")
	listCmd.Flags().String("scenarios-file", "", "YAML file with extra or overriding scenarios. (Overrides config/env)")
	bindFlag(listCmd, "scenarios-file", "scenarios.file")
	return listCmd
}
