// Command helpdesk runs the retrieval-grounded email helpdesk.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/helpdesk/internal/adapters/driving/cli"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// configDirEnv overrides the configuration directory (default ~/.helpdesk).
const configDirEnv = "HELPDESK_HOME"

func main() {
	os.Exit(run())
}

func run() int {
	defer logger.Sync()

	if err := file.LoadDotEnv(); err != nil {
		logger.Warn("reading .env: %v", err)
	}

	a, err := wire(context.Background(), os.Getenv(configDirEnv), os.LookupEnv)
	if err != nil {
		logger.Error("%v", err)
		return 1
	}
	defer a.Close()

	cli.SetServices(a.services)
	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}
