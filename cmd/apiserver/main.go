// apiserver runs the suggestion API server.  Equivalent to "catmatch serve";
// shipped as its own binary for container images that only serve HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/turtacn/CatalogMatch/internal/interfaces/cli"
)

func main() {
	root := cli.NewRootCommand()
	root.SetArgs(append([]string{"serve"}, os.Args[1:]...))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
