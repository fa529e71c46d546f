package main

import (
	"github.com/joho/godotenv"

	"petalbrew/cmd"
)

func main() {
	// A missing .env is fine; it only overrides the environment locally.
	_ = godotenv.Load()

	cmd.Execute()
}
