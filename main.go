package main

import (
	"os"

	"github.com/finscholars/finscholars/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
