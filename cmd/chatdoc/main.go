package main

import (
	"os"

	"github.com/nerdneilsfield/chatdoc/internal/cli"
)

// Version information
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)

	if err := rootCmd.Execute(); err != nil {
		cli.Fail(os.Stderr, err)
		os.Exit(1)
	}
}
