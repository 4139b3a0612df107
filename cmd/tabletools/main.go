package main

import (
	"os"

	"github.com/roach88/tabletools/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
