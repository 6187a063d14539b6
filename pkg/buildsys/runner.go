package buildsys

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// CommandRunner executes a single external command. Implementations never return failures as errors;
// everything is reported through the Result and callers decide what is fatal.
type CommandRunner interface {
	Run(ctx context.Context, dir string, spec CommandSpec) Result
}

// exit status reported by the interpreter when an executable can't be found
const exitNotFound = 127

var defaultExecHandler = interp.DefaultExecHandler(2 * time.Second)

// ShellRunner runs commands through the mvdan.cc/sh interpreter which behaves the same on every platform
type ShellRunner struct {
	// Env overrides entries of the process environment.
	Env    map[string]string
	Stdout io.Writer
	Stderr io.Writer
	// DryRun only logs commands.
	DryRun bool
}

// NewShellRunner returns a runner that streams output to the process' stdout and stderr
func NewShellRunner(env map[string]string, dryRun bool) *ShellRunner {
	return &ShellRunner{
		Env:    env,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		DryRun: dryRun,
	}
}

// lockedBuffer collects stdout and stderr of one command in the order they arrive
type lockedBuffer struct {
	buffer strings.Builder
	lock   sync.Mutex
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buffer.Write(p)
}

func (b *lockedBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buffer.String()
}

// Run implements CommandRunner
func (r *ShellRunner) Run(ctx context.Context, dir string, spec CommandSpec) Result {
	res := Result{Command: spec}
	if spec.IsZero() {
		res.Err = eris.New("empty command")
		res.ExitCode = exitNotFound
		return res
	}

	stmt := callExpr(spec)
	strBuffer := strings.Builder{}
	printer := syntax.NewPrinter(syntax.Minify(true))
	if err := printer.Print(&strBuffer, stmt); err != nil {
		strBuffer.Reset()
		strBuffer.WriteString(spec.String())
	}

	log(ctx).Info().
		Str("dir", dir).
		Bool("command", true).
		Msg(strBuffer.String())

	if r.DryRun {
		return res
	}

	output := &lockedBuffer{}
	stdout := r.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := r.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(getEnvVars(r.Env)...)),
		interp.ExecHandler(defaultExecHandler),
		interp.StdIO(nil, io.MultiWriter(stdout, output), io.MultiWriter(stderr, output)),
		interp.Params("-e"),
	)
	if err != nil {
		res.Err = eris.Wrap(err, "failed to initialize runner")
		res.ExitCode = 1
		return res
	}

	start := time.Now()
	err = runner.Run(ctx, stmt)
	res.Duration = time.Since(start)
	res.Output = output.String()

	if err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			res.ExitCode = int(status)
		} else {
			res.Err = err
			res.ExitCode = 1
		}
	}

	if res.Err == nil && ctx.Err() != nil {
		res.Err = ctx.Err()
		if res.ExitCode == 0 {
			res.ExitCode = 1
		}
	}

	log(ctx).Debug().
		Str("cmd", spec.Name).
		Int("status", res.ExitCode).
		Dur("duration", res.Duration).
		Msg("command finished")

	return res
}
