package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tonlabs/addon-build/pkg"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [pattern...]",
	Short: "Removes the publish directory and configured build leftovers",
	Long: `Removes the publish directory and every path matching the clean patterns from the config file.
Additional doublestar patterns (relative to the package directory) can be passed as arguments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, err := cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		builder, err := newBuilder(dryRun)
		if err != nil {
			return err
		}

		patterns := append(append([]string{}, cfg.Clean...), args...)
		removed, err := builder.Clean(cmd.Context(), patterns)
		if err != nil {
			return err
		}

		if len(removed) == 0 {
			pkg.PrintTask("Nothing to clean")
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolP("dry", "n", false, "only list what would be removed")
	rootCmd.AddCommand(cleanCmd)
}
