// cmd/libctl/main.go

// libctl is the operator CLI for the Shelfmark services: reminder
// sweeps, borrow listings, and test fixtures.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
