package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tonlabs/addon-build/pkg"
	"github.com/tonlabs/addon-build/pkg/buildsys"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Runs the native build, the platform rebuild and publishes the addon",
	Long: `Runs the native release build, the addon rebuild for the current platform and publishes the
resulting binary. If the package contains a build.star script (or --script is passed), the script's
build() function drives the pipeline instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, err := cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		script, err := cmd.Flags().GetString("script")
		if err != nil {
			return err
		}

		builder, err := newBuilder(dryRun)
		if err != nil {
			return err
		}

		if script == "" {
			script = cfg.Script
		}
		if script == "" {
			script, err = buildsys.FindScript(builder.Config().PackageDir)
			if err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		var published []string
		if script != "" {
			pkg.PrintTask("Running " + script)
			published, err = buildsys.RunScript(ctx, script, builder)
		} else {
			pkg.PrintTask("Building " + builder.Config().PackageDir)
			published, err = builder.Run(ctx, []buildsys.Artifact{cfg.DefaultArtifact()})
		}
		if err != nil {
			return err
		}

		pkg.PrintTask("Done")
		for _, path := range published {
			pkg.PrintSubtask(path)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	buildCmd.Flags().StringP("script", "s", "", "Starlark build script to run instead of the default pipeline")
	rootCmd.AddCommand(buildCmd)
}
