package buildsys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRebuildCommands(t *testing.T) {
	commands := DefaultRebuildCommands()

	spec, err := commands.Select("windows")
	require.NoError(t, err)
	assert.Equal(t, "cmd /c node-gyp rebuild", spec.String())

	for _, goos := range []string{"linux", "darwin", "freebsd"} {
		spec, err = commands.Select(goos)
		require.NoError(t, err)
		assert.Equal(t, "npm run build", spec.String(), goos)
	}
}

func TestSelectWithoutDefault(t *testing.T) {
	commands := PlatformCommands{"linux": {Name: "make"}}

	_, err := commands.Select("darwin")
	assert.Error(t, err)

	spec, err := commands.Select("linux")
	require.NoError(t, err)
	assert.Equal(t, "make", spec.Name)
}

func TestNodePlatform(t *testing.T) {
	assert.Equal(t, "win32", NodePlatform("windows"))
	assert.Equal(t, "darwin", NodePlatform("darwin"))
	assert.Equal(t, "linux", NodePlatform("linux"))
	assert.Equal(t, "sunos", NodePlatform("illumos"))
}

func TestCommandSpecString(t *testing.T) {
	spec := CommandSpec{Name: "node", Args: []string{"-e", "console.log('hi')", ""}}
	assert.Equal(t, `node -e 'console.log('\''hi'\'')' ''`, spec.String())
	assert.True(t, CommandSpec{}.IsZero())
}

func TestParseCompression(t *testing.T) {
	cases := map[string]Compression{
		"":       CompressNone,
		"none":   CompressNone,
		"GZIP":   CompressGzip,
		"gz":     CompressGzip,
		"xz":     CompressXz,
		"br":     CompressBrotli,
		"brotli": CompressBrotli,
	}

	for name, expected := range cases {
		result, err := ParseCompression(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, result, name)
	}

	_, err := ParseCompression("zip")
	assert.Error(t, err)
	assert.Equal(t, ".br", CompressBrotli.Ext())
	assert.Equal(t, "", CompressNone.Ext())
}

func TestParsePlatform(t *testing.T) {
	cases := map[string]string{
		"":        HostPlatform(),
		"linux":   "linux",
		"windows": "windows",
		"win32":   "windows",
		"sunos":   "solaris",
	}

	for name, expected := range cases {
		result, err := ParsePlatform(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, result, name)
	}

	for _, name := range []string{"win64", "Linux", "macos"} {
		_, err := ParsePlatform(name)
		assert.Error(t, err, name)
	}
}
