package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solo800/civic-stream/internal/city"
	"github.com/solo800/civic-stream/internal/legistar"
	"github.com/solo800/civic-stream/internal/output"
	"github.com/solo800/civic-stream/internal/resilience"
	"github.com/solo800/civic-stream/internal/runlog"
	"github.com/solo800/civic-stream/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch and normalize matters for one or more cities",
	Long: `Fetch legislative matters from each city's Legistar API, normalize
them into the canonical schema, and write one timestamped JSON file per
city into the results directory.

Cities run concurrently and independently: one city failing does not
abort the others. The command exits non-zero if any city failed.

Token precedence per city: --token, then LEGISTAR_TOKEN_<CODE>, then
the tokens section of the config file.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cityArg, _ := cmd.Flags().GetString("city")
		limit, _ := cmd.Flags().GetInt("limit")
		cliToken, _ := cmd.Flags().GetString("token")
		outDir, _ := cmd.Flags().GetString("out")
		citiesFile, _ := cmd.Flags().GetString("cities-file")

		codes := splitCodes(cityArg)
		if len(codes) == 0 {
			return eris.New("scrape: at least one city code is required (see `civic-stream cities`)")
		}
		if limit <= 0 {
			return eris.Errorf("scrape: limit must be positive, got %d", limit)
		}
		if outDir == "" {
			outDir = cfg.Results.Dir
		}

		registry, err := buildRegistry(citiesFile)
		if err != nil {
			return err
		}

		// Fail fast on unknown codes before opening the run log or
		// touching the network.
		for _, code := range codes {
			if _, err := registry.Lookup(code); err != nil {
				return err
			}
		}

		log := zap.L().With(zap.String("command", "scrape"))

		runs, err := runlog.Open(cfg.RunLog.Path)
		if err != nil {
			return err
		}
		defer runs.Close() //nolint:errcheck

		orch := newOrchestrator(registry)

		var mu sync.Mutex
		var failed []string

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Scrape.MaxConcurrent)

		for _, code := range codes {
			code := code
			g.Go(func() error {
				summary, err := scrapeCity(gctx, orch, runs, outDir, scrape.Options{
					City:             code,
					Limit:            limit,
					CLIToken:         cliToken,
					ConfiguredTokens: cfg.Tokens,
				})
				if err != nil {
					log.Error("city scrape failed", zap.String("city", code), zap.Error(err))
					fmt.Printf("%s: FAILED: %v\n", code, err)
					mu.Lock()
					failed = append(failed, code)
					mu.Unlock()
					return nil // don't abort other cities
				}
				fmt.Print(summary)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		if len(failed) > 0 {
			return eris.Errorf("scrape failed for: %s", strings.Join(failed, ", "))
		}
		return nil
	},
}

func init() {
	scrapeCmd.Flags().String("city", "", "comma-separated city codes (e.g., chicago,sanfrancisco)")
	scrapeCmd.Flags().Int("limit", 5, "number of matters to fetch per city")
	scrapeCmd.Flags().String("token", "", "Legistar API token (overrides env and config file)")
	scrapeCmd.Flags().String("out", "", "results directory (default from config)")
	scrapeCmd.Flags().String("cities-file", "", "YAML file with additional Legistar deployments")
	rootCmd.AddCommand(scrapeCmd)
}

// scrapeCity runs the pipeline for one city, records the run, and
// writes the output artifact. Returns the human summary for stdout.
func scrapeCity(ctx context.Context, orch *scrape.Orchestrator, runs *runlog.Log, outDir string, opts scrape.Options) (string, error) {
	runID, err := runs.Start(ctx, strings.ToLower(opts.City), opts.Limit)
	if err != nil {
		return "", err
	}

	res, err := orch.Run(ctx, opts)
	if err != nil {
		if logErr := runs.Fail(ctx, runID, err.Error()); logErr != nil {
			zap.L().Error("failed to record run failure", zap.Error(logErr))
		}
		return "", err
	}

	path, err := output.WriteMatters(outDir, res.City, res.Matters, time.Now())
	if err != nil {
		if logErr := runs.Fail(ctx, runID, err.Error()); logErr != nil {
			zap.L().Error("failed to record run failure", zap.Error(logErr))
		}
		return "", err
	}

	if err := runs.Complete(ctx, runID, res.Count, res.Elapsed, path); err != nil {
		zap.L().Error("failed to record run completion", zap.Error(err))
	}

	return res.Summary() + fmt.Sprintf("Saved to: %s\n", path), nil
}

// buildRegistry returns the built-in registry, merged with an optional
// extra-deployments file.
func buildRegistry(citiesFile string) (*city.Registry, error) {
	registry := city.NewRegistry()
	if citiesFile != "" {
		if err := registry.MergeFile(citiesFile); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// newOrchestrator wires the pipeline from config.
func newOrchestrator(registry *city.Registry) *scrape.Orchestrator {
	client := legistar.NewClient(legistar.Options{
		UserAgent:         cfg.Scrape.UserAgent,
		Timeout:           time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.Scrape.RequestsPerSecond,
	})
	retry := resilience.RetryConfig{
		MaxAttempts: cfg.Scrape.MaxRetries,
		Delay:       time.Duration(cfg.Scrape.RetryDelayMS) * time.Millisecond,
	}
	return scrape.NewOrchestrator(registry, client, cfg.Scrape.PageSize, retry)
}

// splitCodes parses a comma-separated city list, dropping empties.
func splitCodes(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
