package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"csl_trmnl/internal/config"
	"csl_trmnl/internal/daemon"
	"csl_trmnl/internal/logging"
	"csl_trmnl/internal/matcher"
)

// parseQuery splits ICAO[/AIRLINE[/LIVERY]].
func parseQuery(s string) (matcher.Query, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 || strings.TrimSpace(parts[0]) == "" {
		return matcher.Query{}, fmt.Errorf("query %q must look like ICAO[/AIRLINE[/LIVERY]]", s)
	}
	var q matcher.Query
	q.ICAO = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		q.Airline = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		q.Livery = strings.TrimSpace(parts[2])
	}
	return q, nil
}

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	match := flag.String("match", "", "Match one aircraft, ICAO[/AIRLINE[/LIVERY]], and exit")
	dump := flag.Bool("dump", false, "Print the loaded catalog and exit")
	flag.Parse()

	if *configPath != "" {
		os.Setenv("CSL_TRMNL_CONFIG_PATH", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		// Logger isn't initialized yet
		basicLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		basicLogger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Init(cfg.Log)

	if *dump || *match != "" {
		os.Exit(runOnce(cfg, logger, *match, *dump))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := daemon.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to start daemon", "error", err)
		os.Exit(1)
	}

	if err := d.Run(ctx); err != nil {
		logger.Error("Daemon failed", "error", err)
		d.Close()
		os.Exit(1)
	}
	logger.Info("Received interrupt signal, shutting down")
	if err := d.Close(); err != nil {
		logger.Error("Error during shutdown", "error", err)
	}
}

// runOnce loads the catalog, answers -match and -dump, and returns the exit code.
func runOnce(cfg *config.Config, logger *slog.Logger, match string, dump bool) int {
	_, cat := daemon.LoadCatalog(cfg, logger, nil)

	if dump {
		if err := cat.Dump(os.Stdout); err != nil {
			logger.Error("Failed to dump catalog", "error", err)
			return 1
		}
	}

	if match == "" {
		return 0
	}
	q, err := parseQuery(match)
	if err != nil {
		logger.Error("Invalid -match", "error", err)
		return 2
	}
	res, ok := daemon.NewMatcher(cfg, cat, logger, nil).Match(q)
	if !ok {
		fmt.Printf("%s: no model\n", match)
		return 1
	}
	fmt.Printf("%s: %s %s (%s, quality %d, key %q)\n",
		match, res.Package.Name, res.Plane, res.Phase, res.Quality, res.Key)
	return 0
}
