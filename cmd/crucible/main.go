// Package main is the entry point for the crucible CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/crucible/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
