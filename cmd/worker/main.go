// worker runs the Kafka suggestion worker.  Equivalent to "catmatch worker";
// shipped as its own binary for worker-only deployments.
package main

import (
	"fmt"
	"os"

	"github.com/turtacn/CatalogMatch/internal/interfaces/cli"
)

func main() {
	root := cli.NewRootCommand()
	root.SetArgs(append([]string{"worker"}, os.Args[1:]...))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
