package main

import (
	"fmt"
	"os"

	_ "github.com/noah-isme/chatcal-api/api/swagger"
	"github.com/noah-isme/chatcal-api/internal/cli"
)

// @title Chat Calendar API
// @version 1.0.0
// @description Chat-driven calendar: mutation reconciliation, store snapshots, remote sync and server-side events.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
