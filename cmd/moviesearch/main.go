// Command moviesearch runs one cached search or id lookup against the movies
// index and prints the result as JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/goliatone/go-search-cache/internal/cmd/moviesearch"
	"github.com/goliatone/go-search-cache/internal/config"
	"github.com/goliatone/go-search-cache/internal/observability"
	"github.com/goliatone/go-search-cache/lookup"
	"github.com/goliatone/go-search-cache/pkg/di"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitNotFound = 3
)

func main() {
	os.Exit(run(flag.CommandLine, os.Args[1:], os.Stdout))
}

// run returns the process exit code. Deferred cleanup runs before main exits.
func run(fs *flag.FlagSet, args []string, stdout io.Writer) int {
	cmdCfg, err := moviesearch.ParseConfig(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	cfg, err := config.Load(cmdCfg.EnvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(*cfg, di.WithLogger(logger))
	if err != nil {
		logger.Error("container", zap.Error(err))
		return exitError
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("close container", zap.Error(err))
		}
	}()

	err = moviesearch.Run(ctx, cmdCfg, container, stdout)
	switch {
	case errors.Is(err, lookup.ErrNotFound):
		return exitNotFound
	case err != nil:
		logger.Error("lookup failed", zap.Error(err))
		return exitError
	}
	return exitOK
}
