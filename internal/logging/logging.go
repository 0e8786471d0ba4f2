// Package logging configures the process logger. Diagnostics go to stderr
// only: stdout belongs to the MCP transport.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to stderr with the given prefix.
// PRISM_DEBUG enables debug-level output.
func New(prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if os.Getenv("PRISM_DEBUG") != "" {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
