package main

import (
	"fmt"
	"os"

	"github.com/go-dbgsrv/dbgsrv/cmd/dbgsrv/cmds"
)

func main() {
	if err := cmds.New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
