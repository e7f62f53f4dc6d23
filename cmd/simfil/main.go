// Command simfil compiles and evaluates queries against JSON or YAML
// documents, either one-shot or in an interactive REPL.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
