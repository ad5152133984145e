package main

import (
	"os"

	"github.com/rickykhulal/bolt-earth/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
