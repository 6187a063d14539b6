package buildsys

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, builder *Builder, script string) string {
	t.Helper()
	path := filepath.Join(builder.Config().PackageDir, ScriptFile)
	writeFile(t, path, script)
	return path
}

func TestRunScript(t *testing.T) {
	runner := &fakeRunner{}
	builder := newTestBuilder(t, runner, nil)
	runner.onRun = producesAddon(builder.Config().PackageDir, addonContent)

	script := writeScript(t, builder, `
ADDON = "tonclient.node"

def build():
    native_build()
    platform_rebuild()
    add_package_file(ADDON, resolve_path(RELEASE_DIR, ADDON))
    dest = publish_package_file(ADDON, "tonclient_{v}_nodejs_addon_{p}")
    info("published %s" % dest)
`)

	published, err := RunScript(context.Background(), script, builder)
	require.NoError(t, err)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, "cargo", runner.calls[0].Name)
	assert.Equal(t, "npm", runner.calls[1].Name)

	expected := filepath.Join(builder.Config().PublishDir, "tonclient_1.2.3_nodejs_addon_darwin")
	assert.Equal(t, []string{expected}, published)

	data, err := os.ReadFile(expected)
	require.NoError(t, err)
	assert.Equal(t, addonContent, string(data))
}

func TestRunScriptPreservesExitCode(t *testing.T) {
	runner := &fakeRunner{exit: map[string]int{"cargo": 5}}
	builder := newTestBuilder(t, runner, nil)

	script := writeScript(t, builder, `
def build():
    native_build()
    platform_rebuild()
`)

	_, err := RunScript(context.Background(), script, builder)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Equal(t, 5, ExitCode(err))
	assert.Len(t, runner.calls, 1)
}

func TestRunScriptExec(t *testing.T) {
	runner := &fakeRunner{}
	builder := newTestBuilder(t, runner, nil)

	script := writeScript(t, builder, `
def build():
    exec("node", "scripts/prepare.js", PLATFORM)
`)

	_, err := RunScript(context.Background(), script, builder)
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, CommandSpec{Name: "node", Args: []string{"scripts/prepare.js", "darwin"}}, runner.calls[0])
}

func TestRunScriptHelpers(t *testing.T) {
	builder := newTestBuilder(t, &fakeRunner{}, func(cfg *BuildConfig) {
		cfg.Env = map[string]string{"ADDON_FLAVOR": "debug"}
	})
	writeFile(t, filepath.Join(builder.Config().PackageDir, "meta.yml"), "addon:\n  name: tonclient\n  targets:\n    - darwin\n    - linux\n")
	writeFile(t, filepath.Join(builder.Config().PackageDir, "README.md"), "readme")

	script := writeScript(t, builder, `
def check(cond, msg):
    if not cond:
        error(msg)

def build():
    check(read_yaml("meta.yml", "addon.name") == "tonclient", "name")
    check(read_yaml("meta.yml", "addon.targets.1") == "linux", "targets")
    check(read_yaml("meta.yml", "addon.missing", "fallback") == "fallback", "default")
    check(getenv("ADDON_FLAVOR") == "debug", "env override")
    check(getenv("ADDON_BUILD_SURELY_UNSET", "none") == "none", "env default")
    check(isfile("README.md"), "isfile")
    check(not isfile("lib"), "isfile dir")
    check(VERSION == "1.2.3", "version")
    check(isfile(resolve_path("//README.md")), "resolve_path")
    check(resolve_path("docs", "..", "README.md") == resolve_path("//README.md"), "resolve_path parts")
`)

	_, err := RunScript(context.Background(), script, builder)
	require.NoError(t, err)
}

func TestRunScriptError(t *testing.T) {
	builder := newTestBuilder(t, &fakeRunner{}, nil)

	script := writeScript(t, builder, `
def build():
    error("cannot build on a toaster")
`)

	_, err := RunScript(context.Background(), script, builder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot build on a toaster")
	assert.Equal(t, 1, ExitCode(err))
}

func TestRunScriptRequiresBuild(t *testing.T) {
	builder := newTestBuilder(t, &fakeRunner{}, nil)

	script := writeScript(t, builder, `
def configure():
    pass
`)

	_, err := RunScript(context.Background(), script, builder)
	assert.Error(t, err)

	script = writeScript(t, builder, "build = 42\n")
	_, err = RunScript(context.Background(), script, builder)
	assert.Error(t, err)
}

func TestRunScriptSyntaxError(t *testing.T) {
	builder := newTestBuilder(t, &fakeRunner{}, nil)
	script := writeScript(t, builder, "def build(:\n")

	_, err := RunScript(context.Background(), script, builder)
	assert.Error(t, err)
}

func TestFindScript(t *testing.T) {
	dir := t.TempDir()

	path, err := FindScript(dir)
	require.NoError(t, err)
	assert.Empty(t, path)

	writeFile(t, filepath.Join(dir, ScriptFile), "def build():\n    pass\n")
	path, err = FindScript(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ScriptFile), path)
}
