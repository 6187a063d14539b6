package buildsys

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	"gopkg.in/yaml.v3"
)

func stringOrPath(value starlark.Value, field string) (string, error) {
	switch value := value.(type) {
	case starlark.String:
		return value.GoString(), nil
	case StarlarkPath:
		return string(value), nil
	}

	return "", eris.Errorf("for %s: got %s, want string or path", field, value.Type())
}

func resolvePath(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	base := ""
	ctx := getCtx(thread)

	for _, kv := range kwargs {
		key := kv[0].(starlark.String).GoString()
		if key != "base" {
			return nil, eris.Errorf("unexpected keyword argument %s", key)
		}

		value, err := stringOrPath(kv[1], "base")
		if err != nil {
			return nil, err
		}
		base = normalizePath(ctx.root, ctx.root, value)
	}

	if len(args) < 1 {
		return nil, eris.New("expects at least one argument")
	}

	parts := make([]string, len(args))
	for idx, path := range args {
		value, err := stringOrPath(path, "argument "+strconv.Itoa(idx))
		if err != nil {
			return nil, err
		}
		parts[idx] = value
	}

	normPath := normalizePath(ctx.root, ctx.root, parts...)
	if base != "" {
		var err error
		normPath, err = filepath.Rel(base, normPath)
		if err != nil {
			return nil, err
		}
	}

	return StarlarkPath(normPath), nil
}

func starInfo(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	info(thread, "%s", message)
	return starlark.None, nil
}

func starWarn(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	warn(thread, "%s", message)
	return starlark.None, nil
}

func starError(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	return nil, getCtx(thread).fail(eris.New(message))
}

func getenv(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key string
	var defaultValue string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &key, &defaultValue)
	if err != nil {
		return nil, err
	}

	value, ok := getCtx(thread).builder.Config().Env[key]
	if !ok {
		value, ok = os.LookupEnv(key)
	}
	if !ok {
		value = defaultValue
	}

	return starlark.String(value), nil
}

func readYaml(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var yamlFile starlark.Value
	var yamlKey string
	var defaultValue starlark.Value = starlark.None

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &yamlFile, &yamlKey, &defaultValue)
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	path, err := stringOrPath(yamlFile, "file")
	if err != nil {
		return nil, err
	}
	path = normalizePath(ctx.root, ctx.root, path)

	doc, loaded := ctx.yamlCache[path]
	if !loaded {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to open file %s", path)
		}

		err = yaml.Unmarshal(content, &doc)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to parse file %s", path)
		}
		ctx.yamlCache[path] = doc
	}

	// walk the dotted key
	value := reflect.ValueOf(doc)
	for _, key := range strings.Split(yamlKey, ".") {
		if value.Kind() == reflect.Interface {
			value = value.Elem()
		}

		switch value.Kind() {
		case reflect.Map:
			value = value.MapIndex(reflect.ValueOf(key))
		case reflect.Slice:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= value.Len() {
				return defaultValue, nil
			}
			value = value.Index(idx)
		case reflect.Invalid:
			return defaultValue, nil
		default:
			return defaultValue, nil
		}
	}

	if !value.IsValid() || (value.Kind() == reflect.Interface && value.IsNil()) {
		return defaultValue, nil
	}

	return interfaceToStarlark(value.Interface())
}

func starIsfile(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var filePath starlark.Value

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &filePath)
	if err != nil {
		return nil, err
	}

	path, err := stringOrPath(filePath, "path")
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	info, err := os.Stat(normalizePath(ctx.root, ctx.root, path))
	return starlark.Bool(err == nil && info.Mode().IsRegular()), nil
}

func starExec(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, eris.Errorf("%s: unexpected keyword arguments", fn.Name())
	}

	if len(args) < 1 {
		return nil, eris.Errorf("%s: expects a command", fn.Name())
	}

	parts := make([]string, len(args))
	for idx, arg := range args {
		value, err := stringOrPath(arg, "argument "+strconv.Itoa(idx))
		if err != nil {
			return nil, err
		}
		parts[idx] = value
	}

	ctx := getCtx(thread)
	err := ctx.builder.Exec(ctx.ctx, "exec", CommandSpec{Name: parts[0], Args: parts[1:]})
	if err != nil {
		return nil, ctx.fail(err)
	}

	return starlark.None, nil
}

func nativeBuild(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0)
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	if err = ctx.builder.RunNativeBuild(ctx.ctx); err != nil {
		return nil, ctx.fail(err)
	}

	return starlark.None, nil
}

func platformRebuild(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0)
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	if err = ctx.builder.RunPlatformRebuild(ctx.ctx); err != nil {
		return nil, ctx.fail(err)
	}

	return starlark.None, nil
}

func addPackageFile(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var path starlark.Value

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &name, &path)
	if err != nil {
		return nil, err
	}

	source, err := stringOrPath(path, "path")
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	if err = ctx.builder.AddPackageFile(name, source); err != nil {
		return nil, ctx.fail(err)
	}

	return starlark.None, nil
}

func publishPackageFile(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var template string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &name, &template)
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	dest, err := ctx.builder.PublishPackageFile(ctx.ctx, name, template)
	if err != nil {
		return nil, ctx.fail(err)
	}

	ctx.published = append(ctx.published, dest)
	return StarlarkPath(dest), nil
}
