package cmd

import (
	"bytes"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConsoleWriterCommand(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(NewConsoleWriter(&buf))

	logger.Info().Str("step", "native-build").Bool("command", true).Msg("cargo build --release")
	assert.Contains(t, buf.String(), "native-build: $ cargo build --release")
	assert.Contains(t, buf.String(), "\n")
}

func TestConsoleWriterError(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(NewConsoleWriter(&buf))

	logger.Error().Err(eris.New("node-gyp exploded")).Str("output", "gyp ERR! build error").Msg("build failed")

	out := buf.String()
	assert.Contains(t, out, "Error: build failed")
	assert.Contains(t, out, "node-gyp exploded")
	assert.Contains(t, out, "gyp ERR! build error")
}

func TestConsoleWriterKeepsBrackets(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(NewConsoleWriter(&buf))

	logger.Warn().Msg("pattern target/[ab]/** matched nothing")
	assert.Contains(t, buf.String(), "target/[ab]/** matched nothing")
}

func TestConsoleWriterRejectsGarbage(t *testing.T) {
	_, err := NewConsoleWriter(&bytes.Buffer{}).Write([]byte("not json"))
	assert.Error(t, err)
}
