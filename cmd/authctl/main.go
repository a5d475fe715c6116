package main

import (
	"os"

	"github.com/jrsteele09/go-auth-client/cmd/authctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
