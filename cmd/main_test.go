package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutePropagatesExitCode(t *testing.T) {
	cases := map[string]struct {
		native string
		code   int
	}{
		"failed build":       {native: "exit 7", code: 7},
		"missing executable": {native: "addon-build-missing-tool --release", code: 127},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"version": "1.0.0"}`), 0660))

			path := filepath.Join(dir, "addon-build.toml")
			require.NoError(t, os.WriteFile(path, []byte("[commands]\nnative = \""+tc.native+"\"\n"), 0660))

			rootCmd.SetArgs([]string{"build", "--config", path, "--package-dir", dir, "--no-progress"})
			t.Cleanup(func() { rootCmd.SetArgs(nil) })

			assert.Equal(t, tc.code, Execute())
			_, err := os.Stat(filepath.Join(dir, "publish"))
			assert.True(t, os.IsNotExist(err), "nothing must be published after a failed build")
		})
	}
}
