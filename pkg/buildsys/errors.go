package buildsys

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrCommandFailed is returned when an external command exits with a non-zero status or can't be started
	ErrCommandFailed = eris.New("external command failed")
	// ErrMissingArtifact is returned when a registered file doesn't exist at publish time
	ErrMissingArtifact = eris.New("missing artifact")
	// ErrUnresolvedTemplate is returned for unregistered logical names and unknown template placeholders
	ErrUnresolvedTemplate = eris.New("unresolved template")
	// ErrInvalidPath is returned when a file registration is malformed
	ErrInvalidPath = eris.New("invalid path")
	// ErrInvalidVersion is returned when the package version can't be parsed
	ErrInvalidVersion = eris.New("invalid version")
)

const outputTailLines = 20

// CommandError carries the details of a failed command
type CommandError struct {
	Result Result
}

func (e *CommandError) Error() string {
	if e.Result.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrCommandFailed, e.Result.Command, e.Result.Err)
	}

	return fmt.Sprintf("%s: %s exited with status %d", ErrCommandFailed, e.Result.Command, e.Result.ExitCode)
}

// Is makes eris.Is(err, ErrCommandFailed) match
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}

// ExitCode returns the status the process should exit with
func (e *CommandError) ExitCode() int {
	if e.Result.ExitCode > 0 {
		return e.Result.ExitCode
	}

	return 1
}

// OutputTail returns the last lines of the captured output
func (e *CommandError) OutputTail() string {
	lines := strings.Split(strings.TrimRight(e.Result.Output, "\n"), "\n")
	if len(lines) > outputTailLines {
		lines = lines[len(lines)-outputTailLines:]
	}

	return strings.Join(lines, "\n")
}

func commandError(res Result) error {
	return &CommandError{Result: res}
}

// ExitCode maps an error to a process exit code. Failed commands propagate their own status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode()
	}

	return 1
}
