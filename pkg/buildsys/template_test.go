package buildsys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTemplate(t *testing.T) {
	cases := []struct {
		template string
		expected string
	}{
		{"tonclient_{v}_nodejs_addon_{p}", "tonclient_1.2.3_nodejs_addon_darwin"},
		{"{p}-{v}-{v}.node", "darwin-1.2.3-1.2.3.node"},
		{"tonclient.node", "tonclient.node"},
	}

	for _, c := range cases {
		t.Run(c.template, func(t *testing.T) {
			result, err := ResolveTemplate(c.template, "1.2.3", "darwin")
			require.NoError(t, err)
			assert.Equal(t, c.expected, result)
		})
	}
}

func TestResolveTemplateRejectsUnknownPlaceholders(t *testing.T) {
	for _, template := range []string{"addon_{x}", "addon_{V}_{p}", "addon_{}", "{version}"} {
		_, err := ResolveTemplate(template, "1.2.3", "linux")
		assert.ErrorIs(t, err, ErrUnresolvedTemplate, template)
	}
}

func TestResolveTemplateIgnoresBracesInValues(t *testing.T) {
	result, err := ResolveTemplate("addon_{v}", "1.0.0-{rc}", "linux")
	require.NoError(t, err)
	assert.Equal(t, "addon_1.0.0-{rc}", result)
}

func TestResolveTemplateRequiresFileName(t *testing.T) {
	for _, template := range []string{"", "{p}/{v}", `addon\{v}`, ".."} {
		_, err := ResolveTemplate(template, "1.2.3", "linux")
		assert.ErrorIs(t, err, ErrUnresolvedTemplate, template)
	}
}
