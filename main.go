package main

import (
	"os"

	"cardview/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
