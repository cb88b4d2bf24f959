// catmatch is the operator CLI: serve, worker, migrate, suggest.
package main

import "github.com/turtacn/CatalogMatch/internal/interfaces/cli"

func main() {
	cli.Execute()
}
