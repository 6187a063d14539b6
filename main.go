package main

import (
	"os"

	"github.com/tonlabs/addon-build/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
