package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeffdev/prism-mcp/internal/supervisor"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Run the server under a supervisor for editor integration",
	Long: `Runs prism serve as a supervised child process, forwarding stdio
and signals. Editors configure this command as their MCP server entry;
the supervisor keeps signal handling and exit codes well behaved when
the editor tears the session down.

Extra arguments after -- are passed through to serve.`,
	RunE: runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	self, err := os.Executable()
	if err != nil {
		return err
	}

	childArgs := append([]string{"serve"}, args...)
	sup := supervisor.New(logger, self, childArgs...)

	code, err := sup.Run(context.Background())
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}
