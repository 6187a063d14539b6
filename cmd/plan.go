package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonlabs/addon-build/pkg/buildsys"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Lists the steps the build command would run on this platform",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		builder, err := newBuilder(true)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		buildCfg := builder.Config()
		fmt.Fprintf(out, "Package:  %s\nVersion:  %s\nPlatform: %s (%s)\n\n", buildCfg.PackageDir, buildCfg.Version,
			buildCfg.Platform, buildsys.NodePlatform(buildCfg.Platform))

		script := cfg.Script
		if script == "" {
			script, err = buildsys.FindScript(buildCfg.PackageDir)
			if err != nil {
				return err
			}
		}
		if script != "" {
			fmt.Fprintf(out, "The pipeline is defined by %s.\n", script)
			return nil
		}

		printSteps(cmd, builder.Plan([]buildsys.Artifact{cfg.DefaultArtifact()}))
		return nil
	},
}

func printSteps(cmd *cobra.Command, steps []buildsys.Step) {
	maxNameLen := 0
	for _, step := range steps {
		if len(step.Kind) > maxNameLen {
			maxNameLen = len(step.Kind)
		}
	}

	lineFmt := fmt.Sprintf(" %%d. %%-%ds %%s\n", maxNameLen+1)
	for idx, step := range steps {
		var detail string
		switch step.Kind {
		case buildsys.StepNativeBuild, buildsys.StepPlatformRebuild:
			detail = step.Command.String()
		case buildsys.StepAddFile:
			detail = step.Name + " = " + step.Path
		case buildsys.StepPublish:
			detail = step.Name + " -> " + step.Target
		}

		fmt.Fprintf(cmd.OutOrStdout(), lineFmt, idx+1, string(step.Kind)+":", detail)
	}
}

func init() {
	rootCmd.AddCommand(planCmd)
}
