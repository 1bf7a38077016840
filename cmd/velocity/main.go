package main

import (
	"os"

	"github.com/OptimiLabs/velocity-sub007/cli"
	"github.com/OptimiLabs/velocity-sub007/cmd"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"velocity",
		"Console supervisor for CLI-driven AI coding sessions",
	)

	rootCmd.AddCommand(cmd.NewConsoleCmd())
	rootCmd.AddCommand(cmd.NewLogsCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	cli.ApplyStyledHelpRecursive(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
