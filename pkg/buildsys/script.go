package buildsys

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
)

// ScriptFile is the build script looked up in the package directory
const ScriptFile = "build.star"

type scriptCtx struct {
	ctx       context.Context
	builder   *Builder
	filepath  string
	root      string
	yamlCache map[string]interface{}
	failure   error
	published []string
}

func getCtx(thread *starlark.Thread) *scriptCtx {
	return thread.Local("scriptCtx").(*scriptCtx)
}

// fail remembers the first error raised by a builtin so that RunScript can return it unchanged
// instead of the Starlark backtrace.
func (c *scriptCtx) fail(err error) error {
	if c.failure == nil {
		c.failure = err
	}
	return err
}

// StarlarkPath is a file system path produced by resolve_path()
type StarlarkPath string

func (p StarlarkPath) String() string {
	return starlark.String(p).String()
}

func (p StarlarkPath) Type() string {
	return "path"
}

func (p StarlarkPath) Freeze() {}

func (p StarlarkPath) Truth() starlark.Bool {
	return p != ""
}

func (p StarlarkPath) Hash() (uint32, error) {
	return starlark.String(p).Hash()
}

func info(thread *starlark.Thread, msg string, args ...interface{}) {
	ctx := getCtx(thread)
	pos := thread.CallFrame(1).Pos

	log(ctx.ctx).Info().
		Msgf("%s:%d:%d: %s", simplifyPath(ctx.root, ctx.filepath), pos.Line, pos.Col, fmt.Sprintf(msg, args...))
}

func warn(thread *starlark.Thread, msg string, args ...interface{}) {
	ctx := getCtx(thread)
	pos := thread.CallFrame(1).Pos

	log(ctx.ctx).Warn().
		Msgf("%s:%d:%d: %s", simplifyPath(ctx.root, ctx.filepath), pos.Line, pos.Col, fmt.Sprintf(msg, args...))
}

// FindScript returns the build script in packageDir or an empty string if there is none
func FindScript(packageDir string) (string, error) {
	path := filepath.Join(packageDir, ScriptFile)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", eris.Wrapf(err, "failed to check %s", path)
	}

	if info.IsDir() {
		return "", eris.Errorf("%s is a directory", path)
	}

	return path, nil
}

// RunScript executes a Starlark build script. The script runs its global scope and then has to provide a
// build() function which drives the builder. It returns the paths of all published files.
func RunScript(ctx context.Context, filename string, builder *Builder) ([]string, error) {
	filename, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}

	cfg := builder.Config()
	builtins := starlark.StringDict{
		"OS":                   starlark.String(cfg.Platform),
		"ARCH":                 starlark.String(runtime.GOARCH),
		"PLATFORM":             starlark.String(NodePlatform(cfg.Platform)),
		"VERSION":              starlark.String(cfg.Version),
		"PACKAGE_DIR":          StarlarkPath(cfg.PackageDir),
		"RELEASE_DIR":          StarlarkPath(cfg.ReleaseDir),
		"info":                 starlark.NewBuiltin("info", starInfo),
		"warn":                 starlark.NewBuiltin("warn", starWarn),
		"error":                starlark.NewBuiltin("error", starError),
		"resolve_path":         starlark.NewBuiltin("resolve_path", resolvePath),
		"getenv":               starlark.NewBuiltin("getenv", getenv),
		"read_yaml":            starlark.NewBuiltin("read_yaml", readYaml),
		"isfile":               starlark.NewBuiltin("isfile", starIsfile),
		"exec":                 starlark.NewBuiltin("exec", starExec),
		"native_build":         starlark.NewBuiltin("native_build", nativeBuild),
		"platform_rebuild":     starlark.NewBuiltin("platform_rebuild", platformRebuild),
		"add_package_file":     starlark.NewBuiltin("add_package_file", addPackageFile),
		"publish_package_file": starlark.NewBuiltin("publish_package_file", publishPackageFile),
	}

	thread := &starlark.Thread{
		Name: "main",
		Print: func(thread *starlark.Thread, msg string) {
			log(ctx).Info().Str("thread", thread.Name).Msg(msg)
		},
	}
	threadCtx := scriptCtx{
		ctx:       ctx,
		builder:   builder,
		filepath:  filename,
		root:      cfg.PackageDir,
		yamlCache: make(map[string]interface{}),
		published: make([]string, 0),
	}
	thread.SetLocal("scriptCtx", &threadCtx)

	script, err := os.ReadFile(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read file %s", filename)
	}

	displayName := simplifyPath(threadCtx.root, filename)
	globals, err := starlark.ExecFile(thread, displayName, script, builtins)
	if err != nil {
		return nil, scriptError(&threadCtx, displayName, err)
	}

	build, ok := globals["build"]
	if !ok {
		return nil, eris.Errorf("%s did not declare a build function", displayName)
	}

	buildFunc, ok := build.(starlark.Callable)
	if !ok {
		return nil, eris.Errorf("%s did declare a build value but it's not a function", displayName)
	}

	_, err = starlark.Call(thread, buildFunc, make(starlark.Tuple, 0), make([]starlark.Tuple, 0))
	if err != nil {
		return threadCtx.published, scriptError(&threadCtx, displayName, err)
	}

	return threadCtx.published, nil
}

func scriptError(ctx *scriptCtx, displayName string, err error) error {
	var evalError *starlark.EvalError
	if errors.As(err, &evalError) {
		log(ctx.ctx).Debug().Msg(evalError.Backtrace())
	}

	if ctx.failure != nil {
		// keep the original error so that command exit codes survive
		return ctx.failure
	}

	if evalError != nil {
		return eris.Errorf("failed to execute %s:\n%s", displayName, evalError.Backtrace())
	}
	return eris.Wrapf(err, "failed to execute %s", displayName)
}
