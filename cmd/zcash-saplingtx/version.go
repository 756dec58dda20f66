package main

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli/v2"
)

var versionCmd = cli.Command{
	Name:  "version",
	Usage: "show version information",
	Action: func(ctx *cli.Context) error {
		fmt.Printf("zcash-saplingtx %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return nil
	},
}
