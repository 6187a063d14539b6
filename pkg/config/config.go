package config

import (
	"os"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/tonlabs/addon-build/pkg/buildsys"
)

// DefaultFile is read from the working directory if no other file is passed
const DefaultFile = "addon-build.toml"

// Config describes all configuration options
type Config struct {
	PackageDir  string   `default:"." toml:"package_dir" usage:"Directory of the addon package"`
	ReleaseDir  string   `default:"lib/build/Release" toml:"release_dir" usage:"Native build output, relative to the package"`
	PublishDir  string   `default:"publish" toml:"publish_dir" usage:"Directory that receives published artifacts"`
	Version     string   `toml:"version" usage:"Package version; read from Cargo.toml or package.json if empty"`
	Platform    string   `toml:"platform" usage:"Target platform (GOOS value); defaults to the host"`
	Compression string   `default:"none" toml:"compression" usage:"Compression of published files (none, gzip, xz or brotli)"`
	Progress    bool     `default:"true" toml:"progress" usage:"Show progress bars while publishing"`
	Script      string   `toml:"script" usage:"Starlark build script; build.star in the package is used if present"`
	Clean       []string `toml:"clean" usage:"Additional glob patterns removed by the clean command"`
	Log         struct {
		Level string `default:"info" toml:"level"`
		JSON  bool   `default:"false" toml:"json" usage:"Output JSONND instead of pretty console messages"`
	} `toml:"log"`
	Commands struct {
		Native  string `default:"cargo build --release" toml:"native" usage:"Native release build command"`
		Rebuild struct {
			Default string `default:"npm run build" toml:"default"`
			Windows string `default:"cmd /c node-gyp rebuild" toml:"windows"`
			Darwin  string `toml:"darwin"`
			Linux   string `toml:"linux"`
		} `toml:"rebuild"`
	} `toml:"commands"`
	Artifact struct {
		Name     string `default:"tonclient.node" toml:"name"`
		Path     string `toml:"path" usage:"Artifact path; defaults to the name inside release_dir"`
		Template string `default:"tonclient_{v}_nodejs_addon_{p}" toml:"template"`
	} `toml:"artifact"`
}

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// Loader initializes an empty config object and returns a new Loader for this object. Flags are handled
// by cobra, so the loader only reads defaults, the given files and ADDON_* environment variables.
func Loader(files ...string) (*Config, *aconfig.Loader) {
	if len(files) == 0 {
		files = []string{DefaultFile}
	}

	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags: true,
		EnvPrefix: "ADDON",
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load reads the configuration and expands environment references in path values
func Load(files ...string) (*Config, error) {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			return nil, eris.Wrapf(err, "failed to read config file %s", file)
		}
	}

	cfg, loader := Loader(files...)
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "failed to load configuration")
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) expand() error {
	fields := []*string{&cfg.PackageDir, &cfg.ReleaseDir, &cfg.PublishDir, &cfg.Script, &cfg.Artifact.Path}
	for _, field := range fields {
		value, err := envsubst.String(*field)
		if err != nil {
			return eris.Wrapf(err, "failed to expand %s", *field)
		}
		*field = value
	}

	for idx, pattern := range cfg.Clean {
		value, err := envsubst.String(pattern)
		if err != nil {
			return eris.Wrapf(err, "failed to expand %s", pattern)
		}
		cfg.Clean[idx] = value
	}

	return nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	if _, ok := logLevels[cfg.Log.Level]; !ok {
		return eris.Errorf("Invalid value for log.level: %s", cfg.Log.Level)
	}

	if _, err := buildsys.ParseCompression(cfg.Compression); err != nil {
		return eris.Wrap(err, "Invalid value for compression")
	}

	if _, err := buildsys.ParseCommand(cfg.Commands.Native); err != nil {
		return eris.Wrap(err, "Invalid value for commands.native")
	}

	if _, err := cfg.RebuildCommands(); err != nil {
		return err
	}

	if _, err := buildsys.ParsePlatform(cfg.Platform); err != nil {
		return eris.Wrap(err, "Invalid value for platform")
	}

	if cfg.Version != "" {
		if _, err := buildsys.ValidateVersion(cfg.Version); err != nil {
			return eris.Wrap(err, "Invalid value for version")
		}
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}

// NativeCommand parses commands.native
func (cfg *Config) NativeCommand() (buildsys.CommandSpec, error) {
	return buildsys.ParseCommand(cfg.Commands.Native)
}

// RebuildCommands parses the per-platform rebuild commands. Empty entries are left out.
func (cfg *Config) RebuildCommands() (buildsys.PlatformCommands, error) {
	entries := map[string]string{
		buildsys.DefaultPlatform: cfg.Commands.Rebuild.Default,
		"windows":                cfg.Commands.Rebuild.Windows,
		"darwin":                 cfg.Commands.Rebuild.Darwin,
		"linux":                  cfg.Commands.Rebuild.Linux,
	}

	result := buildsys.PlatformCommands{}
	for platform, line := range entries {
		if line == "" {
			continue
		}

		spec, err := buildsys.ParseCommand(line)
		if err != nil {
			return nil, eris.Wrapf(err, "Invalid value for commands.rebuild.%s", platform)
		}
		result[platform] = spec
	}

	return result, nil
}

// DefaultArtifact returns the artifact published by the default pipeline. Without an explicit path the
// artifact is expected in release_dir.
func (cfg *Config) DefaultArtifact() buildsys.Artifact {
	path := cfg.Artifact.Path
	if path == "" {
		releaseDir := cfg.ReleaseDir
		if releaseDir == "" {
			releaseDir = buildsys.DefaultReleaseDir
		}
		// plain concatenation keeps a leading // (package root) intact
		path = strings.TrimRight(releaseDir, `/\`) + "/" + cfg.Artifact.Name
	}

	return buildsys.Artifact{
		Name:     cfg.Artifact.Name,
		Path:     path,
		Template: cfg.Artifact.Template,
	}
}

// BuildConfig converts the settings into a buildsys.BuildConfig. The version is looked up in the package
// if it isn't configured.
func (cfg *Config) BuildConfig(dryRun bool) (buildsys.BuildConfig, error) {
	compression, err := buildsys.ParseCompression(cfg.Compression)
	if err != nil {
		return buildsys.BuildConfig{}, err
	}

	version := cfg.Version
	if version == "" {
		version, err = buildsys.LookupVersion(cfg.PackageDir)
		if err != nil {
			return buildsys.BuildConfig{}, err
		}
	}

	return buildsys.BuildConfig{
		PackageDir:  cfg.PackageDir,
		ReleaseDir:  cfg.ReleaseDir,
		PublishDir:  cfg.PublishDir,
		Version:     version,
		Platform:    cfg.Platform,
		Compression: compression,
		Progress:    cfg.Progress,
		DryRun:      dryRun,
	}, nil
}
