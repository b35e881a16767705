// Command catalogctl runs maintenance tasks against the catalog database.
package main

import (
	"os"

	"github.com/01moynul/itemcatalog-golang/cmd/catalogctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
