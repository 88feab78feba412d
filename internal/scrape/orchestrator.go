// Package scrape drives the fetch-authenticate-normalize pipeline for
// one city: token resolution, policy checks, sequential pagination,
// and normalization into canonical matter records.
package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/solo800/civic-stream/internal/city"
	"github.com/solo800/civic-stream/internal/legistar"
	"github.com/solo800/civic-stream/internal/matter"
	"github.com/solo800/civic-stream/internal/resilience"
	"github.com/solo800/civic-stream/internal/token"
)

// DefaultPageSize is the fixed per-request page size, independent of
// the caller's overall limit.
const DefaultPageSize = 50

// PageFetcher is the transport dependency. Satisfied by
// *legistar.Client; tests substitute stubs.
type PageFetcher interface {
	FetchPage(ctx context.Context, baseURL, tok string, offset, pageSize int) (legistar.Page, error)
}

// MissingTokenError means the city requires a token and none resolved
// from any source. No network call is made.
type MissingTokenError struct {
	City string
}

func (e *MissingTokenError) Error() string {
	return fmt.Sprintf("city %q requires an API token; supply one via --token, %s, or the tokens section of the config file",
		e.City, token.EnvVar(e.City))
}

// Result is the outcome of one completed run. It is never persisted by
// the orchestrator; the caller decides what to do with it.
type Result struct {
	Matters   []matter.Matter
	City      string
	Requested int
	Count     int
	Elapsed   time.Duration
	BaseURL   string
}

// Options configures a single run.
type Options struct {
	City             string
	Limit            int
	CLIToken         string
	ConfiguredTokens map[string]string
}

// Orchestrator coordinates registry lookup, token resolution, paginated
// fetching, and normalization.
type Orchestrator struct {
	registry *city.Registry
	fetcher  PageFetcher
	pageSize int
	retry    resilience.RetryConfig
	now      func() time.Time
}

// NewOrchestrator wires the pipeline. Pass zero pageSize for the
// default; retry defaults are applied when cfg is zero-valued.
func NewOrchestrator(registry *city.Registry, fetcher PageFetcher, pageSize int, retry resilience.RetryConfig) *Orchestrator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if retry.MaxAttempts <= 0 {
		retry = resilience.DefaultRetryConfig()
	}
	return &Orchestrator{
		registry: registry,
		fetcher:  fetcher,
		pageSize: pageSize,
		retry:    retry,
		now:      time.Now,
	}
}

// Run executes the pipeline for one city. Partial results are
// discarded on any failure: a run produces a complete batch up to
// Limit (or source exhaustion) or fails as a whole.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	start := o.now()

	cfg, err := o.registry.Lookup(opts.City)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("component", "scrape.orchestrator"),
		zap.String("city", cfg.Code),
	)

	resolved := token.Resolve(cfg.Code, opts.CLIToken, opts.ConfiguredTokens)
	if cfg.TokenRequired && resolved.Value == "" {
		return nil, &MissingTokenError{City: cfg.Code}
	}
	log.Debug("token resolved", zap.String("source", string(resolved.Source)))

	limit := opts.Limit
	if limit <= 0 {
		limit = o.pageSize
	}

	retryCfg := o.retry
	if retryCfg.OnRetry == nil {
		retryCfg.OnRetry = resilience.RetryLogger("scrape.orchestrator", "fetch page")
	}

	var matters []matter.Matter
	offset := 0
	for len(matters) < limit {
		page, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (legistar.Page, error) {
			return o.fetcher.FetchPage(ctx, cfg.BaseURL, resolved.Value, offset, o.pageSize)
		})
		if err != nil {
			return nil, err
		}

		scraped := o.now()
		for _, raw := range page.Items {
			m, err := matter.Normalize(raw, page.URL, scraped)
			if err != nil {
				// Silent data loss is worse than a loud failure here:
				// a record without identity breaks downstream dedup.
				return nil, err
			}
			matters = append(matters, m)
		}

		log.Debug("page fetched",
			zap.Int("offset", offset),
			zap.Int("items", len(page.Items)),
			zap.Int("accumulated", len(matters)),
		)

		if !page.HasMore {
			break
		}
		offset += o.pageSize
	}

	// Page sizes need not divide the limit evenly.
	if len(matters) > limit {
		matters = matters[:limit]
	}

	res := &Result{
		Matters:   matters,
		City:      cfg.Code,
		Requested: limit,
		Count:     len(matters),
		Elapsed:   o.now().Sub(start),
		BaseURL:   cfg.BaseURL,
	}

	log.Info("run complete",
		zap.Int("requested", res.Requested),
		zap.Int("fetched", res.Count),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// Summary renders a short human-readable digest of the run for stdout.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fetched %d of %d requested matters for %s in %s\n", r.Count, r.Requested, r.City, r.Elapsed.Round(time.Millisecond))
	for _, m := range r.Matters {
		fmt.Fprintf(&b, "- %s: %s\n", orDash(m.FileNumber), orDash(m.Name))
		fmt.Fprintf(&b, "  Type: %s, Status: %s\n", orDash(m.Type), orDash(m.Status))
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
