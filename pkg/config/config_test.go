package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonlabs/addon-build/pkg/buildsys"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0660))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ".", cfg.PackageDir)
	assert.Equal(t, "publish", cfg.PublishDir)
	assert.Equal(t, "none", cfg.Compression)
	assert.True(t, cfg.Progress)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())

	native, err := cfg.NativeCommand()
	require.NoError(t, err)
	assert.Equal(t, buildsys.DefaultNativeCommand, native)

	rebuild, err := cfg.RebuildCommands()
	require.NoError(t, err)
	assert.Equal(t, buildsys.DefaultRebuildCommands(), rebuild)

	assert.Equal(t, buildsys.Artifact{
		Name:     "tonclient.node",
		Path:     "lib/build/Release/tonclient.node",
		Template: "tonclient_{v}_nodejs_addon_{p}",
	}, cfg.DefaultArtifact())
}

func TestLoadFile(t *testing.T) {
	t.Setenv("TONCLIENT_OUT", "/srv/artifacts")
	path := writeConfig(t, `
version = "2.1.0"
compression = "gzip"
publish_dir = "${TONCLIENT_OUT}/addon"

[commands.rebuild]
linux = "make addon"

[artifact]
template = "addon_{v}_{p}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "2.1.0", cfg.Version)
	assert.Equal(t, "gzip", cfg.Compression)
	assert.Equal(t, "/srv/artifacts/addon", cfg.PublishDir)
	assert.Equal(t, "addon_{v}_{p}", cfg.Artifact.Template)

	rebuild, err := cfg.RebuildCommands()
	require.NoError(t, err)
	assert.Equal(t, buildsys.CommandSpec{Name: "make", Args: []string{"addon"}}, rebuild["linux"])
	assert.Equal(t, "npm run build", rebuild[buildsys.DefaultPlatform].String())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ADDON_VERSION", "3.0.0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", cfg.Version)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"log level":   func(cfg *Config) { cfg.Log.Level = "loud" },
		"compression": func(cfg *Config) { cfg.Compression = "zip" },
		"native":      func(cfg *Config) { cfg.Commands.Native = "cargo build $FLAGS" },
		"rebuild":     func(cfg *Config) { cfg.Commands.Rebuild.Darwin = "npm run build > log" },
		"version":     func(cfg *Config) { cfg.Version = "latest" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBuildConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"version": "4.5.6"}`), 0660))

	cfg, err := Load()
	require.NoError(t, err)
	cfg.PackageDir = dir
	cfg.Compression = "br"

	buildCfg, err := cfg.BuildConfig(true)
	require.NoError(t, err)
	assert.Equal(t, "4.5.6", buildCfg.Version)
	assert.Equal(t, buildsys.CompressBrotli, buildCfg.Compression)
	assert.Equal(t, dir, buildCfg.PackageDir)
	assert.True(t, buildCfg.DryRun)
}

func TestDefaultArtifactFollowsReleaseDir(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.ReleaseDir = "//native/out/"
	assert.Equal(t, "//native/out/tonclient.node", cfg.DefaultArtifact().Path)

	cfg.Artifact.Path = "dist/addon.node"
	assert.Equal(t, "dist/addon.node", cfg.DefaultArtifact().Path)
}

func TestValidatePlatform(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Platform = "win32"
	assert.NoError(t, cfg.Validate())

	cfg.Platform = "win64"
	assert.Error(t, cfg.Validate())
}
