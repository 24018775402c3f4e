// Command filterctl builds, normalizes, stores and previews audit filter
// expressions.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || !exitErr.Reported {
			fmt.Fprintf(os.Stderr, "filterctl: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
