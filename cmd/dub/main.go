package main

import (
	"os"

	"github.com/bnema/dubco-cli/cmd"
)

func main() {
	os.Exit(cmd.ExitCode(cmd.Execute()))
}
