package buildsys

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// normalizePath resolves pathList against base. A leading // refers to root.
func normalizePath(root, base string, pathList ...string) string {
	result := base

	for _, path := range pathList {
		if strings.HasPrefix(path, "//") {
			result = filepath.Join(root, path[2:])
		} else if strings.HasPrefix(path, "/") {
			result = filepath.Join(filepath.VolumeName(result), path)
		} else if !filepath.IsAbs(path) {
			result = filepath.Join(result, path)
		} else {
			result = path
		}
	}

	return filepath.Clean(result)
}

func simplifyPath(root, path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	if absPath == root {
		return "//"
	}

	if strings.HasPrefix(absPath, root+string(filepath.Separator)) {
		return "//" + filepath.ToSlash(absPath[len(root)+1:])
	}
	return path
}

func getEnvVars(envOverrides map[string]string) []string {
	osEnv := os.Environ()
	shellEnv := make([]string, 0, len(osEnv)+len(envOverrides))
	for _, item := range osEnv {
		parts := strings.SplitN(item, "=", 2)
		if runtime.GOOS == "windows" {
			parts[0] = strings.ToUpper(parts[0])
		}

		// skip overriden entries to avoid conflicts
		if _, present := envOverrides[parts[0]]; !present {
			shellEnv = append(shellEnv, item)
		}
	}

	for k, v := range envOverrides {
		shellEnv = append(shellEnv, fmt.Sprintf("%s=%s", k, v))
	}

	return shellEnv
}

// ParseCommand splits a shell-style command line into a CommandSpec. Quotes and escapes are honoured
// but expansions, redirects and pipes are rejected since commands never run through a shell.
func ParseCommand(line string) (CommandSpec, error) {
	parser := syntax.NewParser()
	words := make([]*syntax.Word, 0)
	err := parser.Words(strings.NewReader(line), func(w *syntax.Word) bool {
		words = append(words, w)
		return true
	})
	if err != nil {
		return CommandSpec{}, eris.Wrapf(err, "failed to parse command %q", line)
	}

	if len(words) == 0 {
		return CommandSpec{}, eris.Errorf("command %q is empty", line)
	}

	fields := make([]string, len(words))
	for idx, word := range words {
		if !isLiteralWord(word) {
			return CommandSpec{}, eris.Errorf("command %q: argument %d contains a shell expansion", line, idx)
		}

		fields[idx], err = expand.Literal(nil, word)
		if err != nil {
			return CommandSpec{}, eris.Wrapf(err, "failed to expand argument %d of %q", idx, line)
		}
	}

	return CommandSpec{Name: fields[0], Args: fields[1:]}, nil
}

func isLiteralWord(word *syntax.Word) bool {
	for _, part := range word.Parts {
		switch part := part.(type) {
		case *syntax.Lit:
		case *syntax.SglQuoted:
			if part.Dollar {
				return false
			}
		case *syntax.DblQuoted:
			for _, inner := range part.Parts {
				if _, ok := inner.(*syntax.Lit); !ok {
					return false
				}
			}
		default:
			return false
		}
	}

	return true
}

// callExpr turns a CommandSpec into a shell call. Every argument becomes exactly one literal word.
func callExpr(spec CommandSpec) *syntax.CallExpr {
	parts := append([]string{spec.Name}, spec.Args...)
	cmd := new(syntax.CallExpr)
	cmd.Args = make([]*syntax.Word, len(parts))

	for a, value := range parts {
		var wordPart syntax.WordPart

		if value == "" || strings.ContainsAny(value, " \t$'\"*?[]{}~\\") {
			node := new(syntax.SglQuoted)
			node.Value = value

			wordPart = syntax.WordPart(node)
		} else {
			node := new(syntax.Lit)
			node.Value = value

			wordPart = syntax.WordPart(node)
		}

		cmd.Args[a] = new(syntax.Word)
		cmd.Args[a].Parts = []syntax.WordPart{wordPart}
	}

	return cmd
}

func interfaceToStarlark(value interface{}) (starlark.Value, error) {
	// handle a few simple and common cases first
	switch value := value.(type) {
	case nil:
		return starlark.None, nil
	case string:
		return starlark.String(value), nil
	case int:
		return starlark.MakeInt(value), nil
	case int64:
		return starlark.MakeInt64(value), nil
	case bool:
		return starlark.Bool(value), nil
	case float32:
		return starlark.Float(value), nil
	case float64:
		return starlark.Float(value), nil
	case []string:
		items := make(starlark.Tuple, len(value))
		for idx, raw := range value {
			items[idx] = starlark.String(raw)
		}

		return items, nil
	case map[string]string:
		dict := starlark.NewDict(len(value))
		for k, v := range value {
			err := dict.SetKey(starlark.String(k), starlark.String(v))
			if err != nil {
				return nil, err
			}
		}

		return dict, nil
	}

	refValue := reflect.ValueOf(value)
	var err error
	switch refValue.Kind() {
	case reflect.Slice, reflect.Array:
		tuple := make(starlark.Tuple, refValue.Len())
		for idx := 0; idx < refValue.Len(); idx++ {
			tuple[idx], err = interfaceToStarlark(refValue.Index(idx).Interface())
			if err != nil {
				return nil, err
			}
		}

		return tuple, nil
	case reflect.Map:
		dict := starlark.NewDict(refValue.Len())
		iter := refValue.MapRange()
		for iter.Next() {
			key, err := interfaceToStarlark(iter.Key().Interface())
			if err != nil {
				return nil, err
			}

			value, err := interfaceToStarlark(iter.Value().Interface())
			if err != nil {
				return nil, err
			}

			err = dict.SetKey(key, value)
			if err != nil {
				return nil, err
			}
		}

		return dict, nil
	}

	return nil, eris.Errorf("encountered unsupported type %v", refValue.Kind())
}
