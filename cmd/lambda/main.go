package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/JonMunkholm/intake/internal/app"
	"github.com/JonMunkholm/intake/internal/config"
	"github.com/JonMunkholm/intake/internal/lambdaapi"
	"github.com/JonMunkholm/intake/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Lambda collects stdout, so JSON is easier to query than text.
	logging.Setup(cfg.Logging.Level, "json")

	a, err := app.Open(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	lambda.Start(lambdaapi.NewHandler(a.Service, cfg.Server.MaxBodyBytes, nil).Handle)
}
