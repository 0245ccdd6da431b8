// Command hookwire inspects hookwire runtime configuration.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/hookwire/cmd/hookwire/cmd"
)

func main() {
	if err := cmd.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
