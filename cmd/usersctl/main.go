// Package main is the entry point for usersctl, the account administration CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
