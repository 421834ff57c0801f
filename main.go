/*
Copyright © 2025 bachngocs
*/
package main

import (
	"github.com/joho/godotenv"

	"github.com/bachngocs/support-chatbot-be/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	// Secrets come from the environment; a missing .env is fine in
	// deployments that set them directly.
	_ = godotenv.Load()
}
