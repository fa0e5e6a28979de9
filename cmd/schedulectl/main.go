// schedulectl previews observation schedules without a running server.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
