package main

import (
	"os"

	"github.com/pkeller/loregate/cmd/loregate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
