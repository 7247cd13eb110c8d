// Hypergen - recipe-driven code scaffolding and codemod engine.
//
// This is the main entry point for the hypergen CLI tool.
// For usage information, run: hypergen --help
package main

import (
	"github.com/hypergen/hypergen/internal/cli"
)

func main() {
	cli.Execute()
}
