package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ErrIssuesFound is returned by the analyze command when any check reports
// an issue.
var ErrIssuesFound = errors.New("issues found")

func main() {
	if err := NewRootCommand().ExecuteContext(context.Background()); errors.Is(err, ErrIssuesFound) {
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand returns the jslee command with its subcommands.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "jslee",
		Short: "Symbolic execution of JavaScript functions",
		Long: `
Jslee is a tool for finding bugs in JavaScript code by symbolically executing
each function and reporting the defects observed by its checks.
`[1:],
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewAnalyzeCommand().Command())
	root.AddCommand(NewCFGCommand().Command())
	return root
}
