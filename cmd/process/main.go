// SPDX-License-Identifier: Apache-2.0

// Command process runs and validates pipelines declared in YAML.
//
// Usage:
//
//	process run -f publish.yaml -i '{"id": "item-id", "newState": "published"}'
//	process run -f publish.yaml --trace text
//	process validate -f publish.yaml
//
// Every flag can also be set through a PROCESS_ environment variable
// (PROCESS_FILE, PROCESS_LOG_LEVEL, ...) or a YAML config file given with
// --config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "process: %v\n", err)
		return 1
	}
	return 0
}
