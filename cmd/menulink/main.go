// Command menulink runs the MenuLink API server and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/DamianAcri/menulink-sub001/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "menulink:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
