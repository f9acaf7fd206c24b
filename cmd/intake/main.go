package main

import (
	"context"
	"os"

	"github.com/JonMunkholm/intake/internal/cli"
)

func main() {
	if err := cli.New().ExecuteContext(context.Background()); err != nil {
		os.Exit(cli.Report(os.Stderr, err))
	}
}
