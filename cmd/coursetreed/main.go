// Command coursetreed builds and queries hierarchical retrieval indices
// over embedded course-material corpora.
package main

import (
	"fmt"
	"os"

	"github.com/dgonzap30/coursetree/cmd/coursetreed/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
