package main

import (
	"os"

	"github.com/m00que/Memforensics-MCP/cmd/memforensics/commands"
)

func main() {
	os.Exit(commands.ExitCode(commands.Execute()))
}
