package main

import (
	"context"
	"os"

	"github.com/i474232898/weather-dashboard/internal/cli"
	"github.com/i474232898/weather-dashboard/internal/logger"
)

func main() {
	cmd := cli.New()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
