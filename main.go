package main

import (
	"os"

	"github.com/voltonic/campusgrid/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
