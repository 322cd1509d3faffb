// Command pagetoll runs the owning process: content ingestion, the
// capability registry, and the pay-per-content access gateway.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	pagetoll "github.com/pagetoll/pagetoll"
	"github.com/pagetoll/pagetoll/config"
	pagetollhttp "github.com/pagetoll/pagetoll/http"
	"github.com/pagetoll/pagetoll/metrics"
	"github.com/pagetoll/pagetoll/ratelimit"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional; env vars override)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	contents := pagetoll.NewInMemoryContentStore()
	sessions := pagetoll.NewInMemorySessionStore(cfg.SessionTTL)
	capabilities := pagetoll.NewInMemoryCapabilityStore()

	explorer := pagetollhttp.NewFilfoxClient(&pagetollhttp.ExplorerClientConfig{
		URL:     cfg.Explorer.BaseURL,
		Timeout: cfg.Explorer.Timeout,
	})
	pinner := pagetollhttp.NewLighthouseClient(&pagetollhttp.PinClientConfig{
		URL:        cfg.Pinning.BaseURL,
		GatewayURL: cfg.Pinning.GatewayURL,
		APIKey:     cfg.Pinning.APIKey,
		Timeout:    cfg.Pinning.Timeout,
	})
	summarizer := pagetollhttp.NewGeminiClient(&pagetollhttp.SummarizerClientConfig{
		URL:     cfg.Summarizer.BaseURL,
		APIKey:  cfg.Summarizer.APIKey,
		Model:   cfg.Summarizer.Model,
		Timeout: cfg.Summarizer.Timeout,
	})

	verifierOpts := []pagetoll.VerifierOption{pagetoll.WithVerifierLogger(logger)}
	if cfg.InsecureSkipVerify {
		// config.Load already refused this combination for production.
		verifierOpts = append(verifierOpts, pagetoll.WithInsecureBypass())
	}
	verifier := pagetoll.NewVerifier(explorer, cfg.RecipientAddress, verifierOpts...)

	registry := pagetoll.NewRegistry(capabilities, logger)
	gateway := pagetoll.NewGateway(contents, sessions, verifier, cfg.RecipientAddress, logger)
	ingestor := pagetoll.NewIngestor(pinner, summarizer, contents, registry, cfg.PriceFIL, logger)

	service := pagetollhttp.NewService(pagetollhttp.ServiceConfig{
		Gateway:        gateway,
		Registry:       registry,
		Ingestor:       ingestor,
		SessionLimiter: ratelimit.New(cfg.RateLimit.SessionRPS, cfg.RateLimit.SessionBurst, 10*time.Minute),
		Metrics:        metrics.New(),
		Logger:         logger,
	})

	logger.Info("pagetoll server starting",
		"addr", cfg.ListenAddr, "env", cfg.Env, "priceFIL", cfg.PriceFIL)
	if err := service.Run(cfg.ListenAddr); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
