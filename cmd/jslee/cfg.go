package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/benbjohnson/jslee/javascript"
)

// CFGCommand represents a command for printing the control flow graphs of
// the functions of a file.
type CFGCommand struct {
	function string

	Stdout io.Writer
}

// NewCFGCommand returns a new instance of CFGCommand.
func NewCFGCommand() *CFGCommand {
	return &CFGCommand{Stdout: os.Stdout}
}

// Command returns the cobra command printing the graphs.
func (cmd *CFGCommand) Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "cfg [flags] file",
		Short: "print the control flow graphs of a JavaScript file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Run(c.Context(), args[0])
		},
	}
	c.Flags().StringVarP(&cmd.function, "func", "f", "", "only print the named function")
	return c
}

// Run prints the graphs of the functions of filename.
func (cmd *CFGCommand) Run(ctx context.Context, filename string) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "read")
	}
	file, err := javascript.Parse(ctx, src, filename)
	if err != nil {
		return err
	}

	var n int
	for _, fn := range file.Functions {
		if cmd.function != "" && fn.Name != cmd.function {
			continue
		}
		fmt.Fprintln(cmd.Stdout, fn.Dump())
		n++
	}
	if n == 0 && cmd.function != "" {
		return errors.Errorf("function not found: %s", cmd.function)
	}
	return nil
}
