package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

// testdata is the directory of JavaScript fixtures shared with the engine tests.
var testdata = filepath.Join("..", "..", "testdata")

func TestAnalyzeCommand(t *testing.T) {
	t.Run("IssuesFound", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := NewAnalyzeCommand()
		cmd.Stdout, cmd.Stderr = &stdout, &stderr

		c := cmd.Command()
		c.SetArgs([]string{filepath.Join(testdata, "guard.js")})
		err := c.ExecuteContext(context.Background())
		assert.ErrorIs(t, err, ErrIssuesFound)
		assert.Equal(t, filepath.Join(testdata, "guard.js")+`:12:10: TypeError can be thrown as "x" might be undefined here. (null-dereference)`+"\n", stdout.String())
		assert.Equal(t, "1 issue(s) found\n", stderr.String())
	})

	t.Run("Disabled", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := NewAnalyzeCommand()
		cmd.Stdout, cmd.Stderr = &stdout, &stderr

		c := cmd.Command()
		c.SetArgs([]string{"--disable", "null-dereference", "--searcher", "bfs", testdata})
		require.NoError(t, c.ExecuteContext(context.Background()))
		assert.Empty(t, stdout.String())
	})

	t.Run("ErrUnknownSearcher", func(t *testing.T) {
		cmd := NewAnalyzeCommand()
		c := cmd.Command()
		c.SetArgs([]string{"--searcher", "nope", testdata})
		assert.Error(t, c.ExecuteContext(context.Background()))
	})

	t.Run("ErrFileNotFound", func(t *testing.T) {
		cmd := NewAnalyzeCommand()
		c := cmd.Command()
		c.SetArgs([]string{filepath.Join(testdata, "missing.js")})
		assert.Error(t, c.ExecuteContext(context.Background()))
	})
}

func TestExpandPaths(t *testing.T) {
	filenames, err := expandPaths([]string{testdata})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(testdata, "branches.js"),
		filepath.Join(testdata, "guard.js"),
		filepath.Join(testdata, "loop.js"),
	}, filenames)
}

func TestCFGCommand(t *testing.T) {
	t.Run("Function", func(t *testing.T) {
		var stdout bytes.Buffer
		cmd := NewCFGCommand()
		cmd.Stdout = &stdout

		c := cmd.Command()
		c.SetArgs([]string{"--func", "count", filepath.Join(testdata, "loop.js")})
		require.NoError(t, c.ExecuteContext(context.Background()))
		assert.Contains(t, stdout.String(), "FUNCTION count (entry=0 exit=1)")
		assert.NotContains(t, stdout.String(), "<program>")
	})

	t.Run("ErrFunctionNotFound", func(t *testing.T) {
		cmd := NewCFGCommand()
		cmd.Stdout = &bytes.Buffer{}

		c := cmd.Command()
		c.SetArgs([]string{"--func", "nope", filepath.Join(testdata, "loop.js")})
		assert.EqualError(t, c.ExecuteContext(context.Background()), "function not found: nope")
	})
}
