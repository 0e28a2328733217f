package main

import (
	"os"

	"github.com/hashgraph-online/hip542-go/cmd/hip542/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
