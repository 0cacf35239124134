package main

import (
	"os"

	"github.com/lydakis/blackfast/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
