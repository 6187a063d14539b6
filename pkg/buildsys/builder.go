package buildsys

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Builder sequences the native build, the platform rebuild and the publishing of the resulting artifacts.
// It is not safe for concurrent use; every step depends on the files produced by the previous one.
type Builder struct {
	cfg     BuildConfig
	runner  CommandRunner
	native  CommandSpec
	rebuild CommandSpec
	files   map[string]string
}

// Option customizes a Builder
type Option func(*builderOptions)

type builderOptions struct {
	native  CommandSpec
	rebuild PlatformCommands
}

// WithNativeCommand replaces the default native build command
func WithNativeCommand(spec CommandSpec) Option {
	return func(o *builderOptions) {
		if !spec.IsZero() {
			o.native = spec
		}
	}
}

// WithRebuildCommands merges the given entries into the platform rebuild table
func WithRebuildCommands(commands PlatformCommands) Option {
	return func(o *builderOptions) {
		for platform, spec := range commands {
			if !spec.IsZero() {
				o.rebuild[platform] = spec
			}
		}
	}
}

// NewBuilder validates cfg and selects the rebuild command for cfg.Platform. The selection is final.
func NewBuilder(cfg BuildConfig, runner CommandRunner, opts ...Option) (*Builder, error) {
	if runner == nil {
		return nil, eris.New("a command runner is required")
	}

	if cfg.PackageDir == "" {
		return nil, eris.Wrap(ErrInvalidPath, "package directory is empty")
	}

	packageDir, err := filepath.Abs(cfg.PackageDir)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to resolve package directory %s", cfg.PackageDir)
	}
	cfg.PackageDir = packageDir

	if cfg.ReleaseDir == "" {
		cfg.ReleaseDir = DefaultReleaseDir
	}
	cfg.ReleaseDir = normalizePath(packageDir, packageDir, cfg.ReleaseDir)

	if cfg.PublishDir == "" {
		cfg.PublishDir = "publish"
	}
	cfg.PublishDir = normalizePath(packageDir, packageDir, cfg.PublishDir)

	cfg.Platform, err = ParsePlatform(cfg.Platform)
	if err != nil {
		return nil, err
	}

	if cfg.Compression == "" {
		cfg.Compression = CompressNone
	}
	if _, err := ParseCompression(string(cfg.Compression)); err != nil {
		return nil, err
	}

	cfg.Version, err = ValidateVersion(cfg.Version)
	if err != nil {
		return nil, err
	}

	options := builderOptions{
		native:  DefaultNativeCommand,
		rebuild: DefaultRebuildCommands(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	rebuild, err := options.rebuild.Select(cfg.Platform)
	if err != nil {
		return nil, err
	}

	return &Builder{
		cfg:     cfg,
		runner:  runner,
		native:  options.native,
		rebuild: rebuild,
		files:   make(map[string]string),
	}, nil
}

// Config returns the resolved configuration
func (b *Builder) Config() BuildConfig {
	return b.cfg
}

// NativeCommand returns the native build command
func (b *Builder) NativeCommand() CommandSpec {
	return b.native
}

// RebuildCommand returns the rebuild command selected for the configured platform
func (b *Builder) RebuildCommand() CommandSpec {
	return b.rebuild
}

// Exec runs an arbitrary command in the package directory. A non-zero exit is returned as *CommandError.
func (b *Builder) Exec(ctx context.Context, step StepKind, spec CommandSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx = withStep(ctx, step)
	res := b.runner.Run(ctx, b.cfg.PackageDir, spec)
	if !res.Success() {
		err := commandError(res)
		log(ctx).Error().
			Int("status", res.ExitCode).
			Msg(err.Error())
		return err
	}

	return nil
}

// RunNativeBuild compiles the native library in release mode
func (b *Builder) RunNativeBuild(ctx context.Context) error {
	return b.Exec(ctx, StepNativeBuild, b.native)
}

// RunPlatformRebuild runs the addon rebuild command selected for this platform
func (b *Builder) RunPlatformRebuild(ctx context.Context) error {
	return b.Exec(ctx, StepPlatformRebuild, b.rebuild)
}

// AddPackageFile registers path under the logical name. Relative paths are resolved against the package
// directory. The file doesn't have to exist yet.
func (b *Builder) AddPackageFile(name, path string) error {
	if strings.TrimSpace(name) == "" {
		return eris.Wrap(ErrInvalidPath, "logical name is empty")
	}

	if strings.TrimSpace(path) == "" {
		return eris.Wrapf(ErrInvalidPath, "%s: path is empty", name)
	}

	if strings.ContainsRune(path, 0) {
		return eris.Wrapf(ErrInvalidPath, "%s: path contains a NUL byte", name)
	}

	b.files[name] = normalizePath(b.cfg.PackageDir, b.cfg.PackageDir, path)
	return nil
}

// PackageFile returns the path registered under name
func (b *Builder) PackageFile(name string) (string, bool) {
	path, ok := b.files[name]
	return path, ok
}

// ResolveTemplate fills in the builder's version and platform
func (b *Builder) ResolveTemplate(template string) (string, error) {
	return ResolveTemplate(template, b.cfg.Version, NodePlatform(b.cfg.Platform))
}

// PublishPackageFile copies the file registered as name into the publish directory under the resolved
// template. It returns the destination path.
func (b *Builder) PublishPackageFile(ctx context.Context, name, template string) (string, error) {
	src, ok := b.files[name]
	if !ok {
		return "", eris.Wrapf(ErrUnresolvedTemplate, "no package file registered as %s", name)
	}

	fileName, err := b.ResolveTemplate(template)
	if err != nil {
		return "", err
	}

	cfg := b.cfg
	cfg.Platform = NodePlatform(cfg.Platform)
	return publishFile(withStep(ctx, StepPublish), cfg, name, src, fileName)
}

// Plan lists the steps Run would execute for the given artifacts
func (b *Builder) Plan(artifacts []Artifact) []Step {
	steps := []Step{
		{Kind: StepNativeBuild, Command: b.native},
		{Kind: StepPlatformRebuild, Command: b.rebuild},
	}

	for _, artifact := range artifacts {
		steps = append(steps, Step{
			Kind: StepAddFile,
			Name: artifact.Name,
			Path: normalizePath(b.cfg.PackageDir, b.cfg.PackageDir, artifact.Path),
		})
	}

	for _, artifact := range artifacts {
		target, err := b.ResolveTemplate(artifact.Template)
		if err != nil {
			target = artifact.Template
		}

		steps = append(steps, Step{
			Kind:   StepPublish,
			Name:   artifact.Name,
			Target: filepath.Join(b.cfg.PublishDir, target+b.cfg.Compression.Ext()),
		})
	}

	return steps
}

// Run executes the default pipeline: native build, platform rebuild, then registering and publishing every
// artifact. The first failure aborts everything that follows.
func (b *Builder) Run(ctx context.Context, artifacts []Artifact) ([]string, error) {
	err := b.RunNativeBuild(ctx)
	if err != nil {
		return nil, err
	}

	err = b.RunPlatformRebuild(ctx)
	if err != nil {
		return nil, err
	}

	for _, artifact := range artifacts {
		err = b.AddPackageFile(artifact.Name, artifact.Path)
		if err != nil {
			return nil, err
		}
	}

	published := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		dest, err := b.PublishPackageFile(ctx, artifact.Name, artifact.Template)
		if err != nil {
			return published, err
		}

		published = append(published, dest)
	}

	return published, nil
}

func withStep(ctx context.Context, step StepKind) context.Context {
	logger := log(ctx).With().Str("step", string(step)).Logger()
	return WithLogger(ctx, &logger)
}
