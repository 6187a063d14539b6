package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tonlabs/addon-build/pkg"
	"github.com/tonlabs/addon-build/pkg/buildsys"
	"github.com/tonlabs/addon-build/pkg/config"
)

var (
	cfg      *config.Config
	buildEnv map[string]string
	logger   = zerolog.New(NewConsoleWriter(os.Stderr))
)

var rootCmd = &cobra.Command{
	Use:   "addon-build",
	Short: "Builds and publishes the native Node.js addon",
	Long: `This command runs the native release build and the platform specific addon rebuild and
publishes the resulting binary under a versioned file name.

Settings are read from addon-build.toml, ADDON_* environment variables and flags (in ascending priority).`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			files = append(files, path)
		}

		var err error
		cfg, err = config.Load(files...)
		if err != nil {
			return err
		}

		err = applyFlags(cmd, cfg)
		if err != nil {
			return err
		}

		err = cfg.Validate()
		if err != nil {
			return err
		}

		logger = newLogger(cfg)
		cmd.SetContext(buildsys.WithLogger(cmd.Context(), &logger))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default "+config.DefaultFile+" if present)")
	flags.String("package-dir", "", "directory of the addon package")
	flags.String("version", "", "package version (default: read from Cargo.toml or package.json)")
	flags.String("platform", "", "target platform as GOOS value (default: host platform)")
	flags.String("publish-dir", "", "directory that receives published artifacts")
	flags.String("compress", "", "compression of published files: none, gzip, xz or brotli")
	flags.String("log-level", "", "log level: trace, debug, info, warn or error")
	flags.Bool("json", false, "output JSON log lines instead of pretty console messages")
	flags.Bool("no-progress", false, "hide progress bars")
	flags.StringToString("env", nil, "extra environment variables for build commands (KEY=VALUE)")
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	stringFlags := map[string]*string{
		"package-dir": &cfg.PackageDir,
		"version":     &cfg.Version,
		"platform":    &cfg.Platform,
		"publish-dir": &cfg.PublishDir,
		"compress":    &cfg.Compression,
		"log-level":   &cfg.Log.Level,
	}

	for name, target := range stringFlags {
		if !flags.Changed(name) {
			continue
		}

		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*target = value
	}

	if flags.Changed("json") {
		value, err := flags.GetBool("json")
		if err != nil {
			return err
		}
		cfg.Log.JSON = value
	}

	if noProgress, _ := flags.GetBool("no-progress"); noProgress {
		cfg.Progress = false
	}

	env, err := flags.GetStringToString("env")
	if err != nil {
		return err
	}
	buildEnv = env

	if !flags.Changed("package-dir") && cfg.PackageDir == "." {
		// allow running from a sub directory of the package
		if dir, err := pkg.FindPackageDir("."); err == nil {
			cfg.PackageDir = dir
		}
	}

	return nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var result zerolog.Logger
	if cfg.Log.JSON {
		result = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		result = zerolog.New(NewConsoleWriter(os.Stderr))
	}

	return result.Level(cfg.LogLevel())
}

func newBuilder(dryRun bool) (*buildsys.Builder, error) {
	buildCfg, err := cfg.BuildConfig(dryRun)
	if err != nil {
		return nil, err
	}
	buildCfg.Env = buildEnv

	native, err := cfg.NativeCommand()
	if err != nil {
		return nil, err
	}

	rebuild, err := cfg.RebuildCommands()
	if err != nil {
		return nil, err
	}

	runner := buildsys.NewShellRunner(buildCfg.Env, dryRun)
	return buildsys.NewBuilder(buildCfg, runner,
		buildsys.WithNativeCommand(native),
		buildsys.WithRebuildCommands(rebuild),
	)
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	evt := logger.Error().Err(err)
	var cmdErr *buildsys.CommandError
	if errors.As(err, &cmdErr) && cfg != nil && cfg.Log.JSON {
		evt = evt.Str("output", cmdErr.OutputTail())
	}
	evt.Msg("build failed")

	return buildsys.ExitCode(err)
}
