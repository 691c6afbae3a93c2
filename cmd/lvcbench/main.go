// cmd/lvcbench/main.go
package main

import (
	cmd "github.com/mwiater/lvcbench/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main starts the lvcbench CLI by delegating to the cobra root command.
func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
