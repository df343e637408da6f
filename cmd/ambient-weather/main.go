package main

import (
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/i474232898/ambient-weather/internal/config"
	"github.com/i474232898/ambient-weather/internal/logging"
	"github.com/i474232898/ambient-weather/pkg/ambient"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ambient-weather",
		Short:        "Read observations from an Ambient Weather station",
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newLatestCmd(),
		newHistoricCmd(),
		newDevicesCmd(),
	)
	return root
}

// app bundles what every command builds from configuration.
type app struct {
	cfg    *config.AppConfig
	logger *logrus.Logger
	client *ambient.Client
	creds  ambient.Credentials
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	creds, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}

	// Shared HTTP client for outbound vendor calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	client := ambient.NewClient(
		ambient.WithHTTPClient(httpClient),
		ambient.WithRequestDelay(cfg.RequestDelay),
		ambient.WithLogger(logger),
	)

	return &app{cfg: cfg, logger: logger, client: client, creds: creds}, nil
}
