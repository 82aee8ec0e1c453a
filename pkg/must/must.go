// Package must provides helpers for invoking functions whose errors are
// expected in the overwhelming majority of cases but still worth logging
// when they do occur (e.g. best-effort cleanup during error unwinding).
package must

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/foliotree/foliotree/pkg/logging"
)

// Close closes c, logging a warning if the close fails.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// OSRemove removes the file at name, logging a warning if removal fails.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("unable to remove '%s': %s", name, err.Error())
	}
}

// Succeed logs a warning if err is non-nil, describing the task that failed.
func Succeed(err error, task string, logger *logging.Logger) {
	if err != nil {
		logger.Warnf("unable to succeed at %s: %s", task, err.Error())
	}
}

// CommandHelp invokes c.Help(), logging a warning if it fails.
func CommandHelp(c *cobra.Command, logger *logging.Logger) {
	if err := c.Help(); err != nil {
		logger.Warnf("unable to print help: %s", err.Error())
	}
}
