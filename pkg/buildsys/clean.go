package buildsys

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rotisserie/eris"
)

// CleanTargets lists the publish directory and every existing path below the package directory that
// matches one of patterns. Patterns use doublestar syntax and are relative to the package directory.
func (b *Builder) CleanTargets(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	targets := []string{}

	if _, err := os.Stat(b.cfg.PublishDir); err == nil {
		seen[b.cfg.PublishDir] = true
		targets = append(targets, b.cfg.PublishDir)
	}

	fsys := os.DirFS(b.cfg.PackageDir)
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "//")
		if pattern == "" || filepath.IsAbs(pattern) || strings.HasPrefix(pattern, "/") {
			return nil, eris.Wrapf(ErrInvalidPath, "clean pattern %q must be relative to the package", pattern)
		}

		if !doublestar.ValidatePattern(pattern) {
			return nil, eris.Wrapf(ErrInvalidPath, "invalid clean pattern %q", pattern)
		}

		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithNoFollow())
		if err != nil {
			return nil, eris.Wrapf(err, "failed to resolve pattern %s", pattern)
		}

		for _, match := range matches {
			path := filepath.Join(b.cfg.PackageDir, filepath.FromSlash(match))
			if path == b.cfg.PackageDir || seen[path] {
				continue
			}

			seen[path] = true
			targets = append(targets, path)
		}
	}

	sort.Strings(targets)
	return targets, nil
}

// Clean removes the paths returned by CleanTargets. In dry run mode nothing is deleted.
func (b *Builder) Clean(ctx context.Context, patterns []string) ([]string, error) {
	targets, err := b.CleanTargets(patterns)
	if err != nil {
		return nil, err
	}

	ctx = withStep(ctx, "clean")
	for _, path := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log(ctx).Info().Str("path", path).Msgf("removing %s", simplifyPath(b.cfg.PackageDir, path))
		if b.cfg.DryRun {
			continue
		}

		err = os.RemoveAll(path)
		if err != nil && !eris.Is(err, os.ErrNotExist) {
			return nil, eris.Wrapf(err, "could not delete %s", path)
		}
	}

	return targets, nil
}
