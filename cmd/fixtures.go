package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/zine-verify/internal/fixtures"
	"github.com/xkilldash9x/zine-verify/internal/observability"
)

// newFixturesCmd creates the `fixtures` command, which writes the PDF files
// the upload scenarios depend on.
func newFixturesCmd() *cobra.Command {
	var (
		force bool
		seed  uint64
	)

	fixturesCmd := &cobra.Command{
		Use:   "fixtures [name...]",
		Short: "Generates the PDF fixtures used by the upload scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}

			selected := fixtures.Builtins()
			if len(args) > 0 {
				selected = selected[:0]
				for _, name := range args {
					f, ok := fixtures.Lookup(name)
					if !ok {
						return fmt.Errorf("unknown fixture %q", name)
					}
					selected = append(selected, f)
				}
			}

			logger := observability.GetLogger().Named("fixtures")
			written, err := fixtures.Generate(cfg.Verification.FixturesDir, selected, fixtures.Options{Overwrite: force, Seed: seed}, logger)
			if err != nil {
				return err
			}
			logger.Info("Fixtures ready", zap.String("dir", cfg.Verification.FixturesDir), zap.Int("written", len(written)))
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	fixturesCmd.Flags().BoolVar(&force, "force", false, "Overwrite fixtures that already exist.")
	fixturesCmd.Flags().Uint64Var(&seed, "seed", 1, "Seed for the random rectangles drawn on each page.")
	fixturesCmd.Flags().String("fixtures-dir", "", "Directory to write fixtures into. (Overrides config/env)")
	bindFlag(fixturesCmd, "fixtures-dir", "verification.fixtures_dir")
	return fixturesCmd
}
