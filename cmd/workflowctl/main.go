// Command workflowctl inspects the workflow catalog offline and mints
// development tokens for the API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
