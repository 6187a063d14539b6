package buildsys

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prepareCleanTree(t *testing.T, builder *Builder) string {
	t.Helper()
	dir := builder.Config().PackageDir
	writeFile(t, filepath.Join(dir, "publish", "tonclient_1.2.3_nodejs_addon_darwin"), addonContent)
	writeFile(t, filepath.Join(dir, "lib", "build", "Release", "tonclient.node"), addonContent)
	writeFile(t, filepath.Join(dir, "target", "release", "libtonclient.a"), "archive")
	writeFile(t, filepath.Join(dir, "src", "lib.rs"), "fn main() {}")
	return dir
}

func TestClean(t *testing.T) {
	builder := newTestBuilder(t, &fakeRunner{}, nil)
	dir := prepareCleanTree(t, builder)

	removed, err := builder.Clean(context.Background(), []string{"lib/build", "target/**/*.a"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "lib", "build"),
		filepath.Join(dir, "publish"),
		filepath.Join(dir, "target", "release", "libtonclient.a"),
	}, removed)

	for _, path := range removed {
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err), path)
	}

	_, err = os.Stat(filepath.Join(dir, "src", "lib.rs"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "target", "release"))
	assert.NoError(t, err)
}

func TestCleanDryRun(t *testing.T) {
	builder := newTestBuilder(t, &fakeRunner{}, func(cfg *BuildConfig) {
		cfg.DryRun = true
	})
	dir := prepareCleanTree(t, builder)

	removed, err := builder.Clean(context.Background(), []string{"//lib/build"})
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	_, err = os.Stat(filepath.Join(dir, "lib", "build", "Release", "tonclient.node"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "publish"))
	assert.NoError(t, err)
}

func TestCleanRejectsBadPatterns(t *testing.T) {
	builder := newTestBuilder(t, &fakeRunner{}, nil)

	_, err := builder.CleanTargets([]string{"/etc"})
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = builder.CleanTargets([]string{"lib/[build"})
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestCleanWithoutPublishDir(t *testing.T) {
	builder := newTestBuilder(t, &fakeRunner{}, nil)

	removed, err := builder.Clean(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, removed)
}
