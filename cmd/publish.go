package cmd

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tonlabs/addon-build/pkg"
)

var publishCmd = &cobra.Command{
	Use:   "publish <name> <path> <template>",
	Short: "Publishes an already built file under a templated name",
	Long: `Registers the file at path under the logical name and publishes it. {v} and {p} in the template
are replaced with the package version and the platform. No build commands are run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 3 {
			return eris.Errorf("Expected 3 arguments but got %d!", len(args))
		}

		builder, err := newBuilder(false)
		if err != nil {
			return err
		}

		err = builder.AddPackageFile(args[0], args[1])
		if err != nil {
			return err
		}

		dest, err := builder.PublishPackageFile(cmd.Context(), args[0], args[2])
		if err != nil {
			return err
		}

		pkg.PrintSubtask(dest)
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <template>",
	Short: "Prints the file name a publish template resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		builder, err := newBuilder(false)
		if err != nil {
			return err
		}

		name, err := builder.ResolveTemplate(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(resolveCmd)
}
