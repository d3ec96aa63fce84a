package main

import (
	"os"

	"github.com/sttalk999/sttalk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
