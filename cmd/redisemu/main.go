package main

import (
	"os"

	"github.com/LavishGent/redisemu/cmd/redisemu/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
