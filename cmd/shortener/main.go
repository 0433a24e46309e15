package main

import (
	"os"

	"github.com/vadimbarashkov/url-shortener-client/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
