package main

import (
	"os"

	"github.com/tkingovr/noisegate/cmd/noisegate/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
