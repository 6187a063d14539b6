package buildsys

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	versionPlaceholder  = "{v}"
	platformPlaceholder = "{p}"
)

var placeholderMatcher = regexp.MustCompile(`\{[^{}]*\}`)

// ResolveTemplate substitutes the version and platform placeholders of a publish template.
// The result has to be a plain file name.
func ResolveTemplate(template, version, platform string) (string, error) {
	if template == "" {
		return "", eris.Wrap(ErrUnresolvedTemplate, "publish template is empty")
	}

	resolved := strings.ReplaceAll(template, versionPlaceholder, version)
	resolved = strings.ReplaceAll(resolved, platformPlaceholder, platform)

	// only look at the template itself so that a version like 1.0.0-{rc} can't trip the check
	unknown := placeholderMatcher.FindAllString(
		strings.NewReplacer(versionPlaceholder, "", platformPlaceholder, "").Replace(template), -1)
	if len(unknown) > 0 {
		return "", eris.Wrapf(ErrUnresolvedTemplate, "template %s contains unknown placeholders %s",
			template, strings.Join(unknown, ", "))
	}

	if resolved == "." || resolved == ".." || strings.ContainsAny(resolved, `/\`+"\x00") {
		return "", eris.Wrapf(ErrUnresolvedTemplate, "template %s resolves to %q which is not a file name",
			template, resolved)
	}

	return resolved, nil
}
