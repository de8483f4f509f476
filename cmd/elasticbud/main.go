package main

import (
	"os"

	"github.com/clinia/elasticbud/cmd/elasticbud/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
