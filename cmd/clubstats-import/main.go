package main

import (
	"os"

	"clubstats/cmd/clubstats-import/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
