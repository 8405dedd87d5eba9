// Command stepcoach prepares datasets, trains and queries the steps model offline.
package main

import (
	"os"

	"github.com/Rob190501/iWalk/internal/config"
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}
