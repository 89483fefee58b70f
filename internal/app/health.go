package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/tommyzki/tommyzki-translate/internal/cli"
	"github.com/tommyzki/tommyzki-translate/internal/config"
	"github.com/tommyzki/tommyzki-translate/internal/logging"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Second, "Model endpoint timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := newLLMClient(cfg)
	models, err := client.ListModels(ctx)
	if err != nil {
		logger.Error().Err(err).Str("endpoint", client.BaseURL()).Msg("health check failed")
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}

	advertised := slices.ContainsFunc(models, func(id string) bool {
		return strings.TrimPrefix(id, "models/") == client.ModelName()
	})
	if len(models) > 0 && !advertised {
		logger.Warn().
			Str("model", client.ModelName()).
			Int("advertised", len(models)).
			Msg("configured model is not advertised by the endpoint")
	}

	logger.Info().
		Str("endpoint", client.BaseURL()).
		Str("model", client.ModelName()).
		Dur("timeout", *timeout).
		Msg("model endpoint health check passed")
	fmt.Printf("ok: model endpoint reachable (%d models)\n", len(models))
	return 0
}
