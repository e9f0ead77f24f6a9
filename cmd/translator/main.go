package main

import (
	"os"

	"github.com/nerdneilsfield/go-po-translator/internal/cli"
)

// Version information
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)
	os.Exit(cli.Execute(rootCmd, os.Stderr))
}
