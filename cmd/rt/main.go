package main

import (
	"os"

	"github.com/yzaremba/rt/internal/cli"
)

func main() {
	exitCode := cli.Execute(os.Args[1:])
	os.Exit(exitCode)
}
