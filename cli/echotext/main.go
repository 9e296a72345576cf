package main

import (
	"os"

	echotextcmder "github.com/echolab/echotext/cmd/echotext"
)

func main() {
	cmd := echotextcmder.NewEchotextCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
