// Command tokf proxies CLI commands and filters their output for
// reduced token consumption by AI agents (spec.md's overview).
package main

import (
	"os"

	"github.com/Fuabioo/tokf/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
