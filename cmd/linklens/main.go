package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/linklens-ai/linklens/internal/audit"
	"github.com/linklens-ai/linklens/internal/config"
	"github.com/linklens-ai/linklens/internal/explain"
	"github.com/linklens-ai/linklens/internal/features"
	"github.com/linklens-ai/linklens/internal/history"
	"github.com/linklens-ai/linklens/internal/phishguard"
	"github.com/linklens-ai/linklens/internal/redact"
	"github.com/linklens-ai/linklens/internal/scoring"
	"github.com/linklens-ai/linklens/internal/server"
	"github.com/linklens-ai/linklens/internal/telemetry"
)

const version = "1.0.0"

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "linklens.yaml", "Path to LinkLens config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	bundle := loadBundle(cfg)
	defer bundle.Close()

	engine := scoring.NewEngine(
		features.NewExtractor(features.DefaultWordlists()),
		bundle.Model,
		explain.NewGenerator(bundle.Baselines, bundle.Importance),
	)

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			log.Fatalf("open history store: %v", err)
		}
		defer store.Close()
	}

	emitter := buildEmitter(cfg)
	if emitter != nil {
		defer emitter.Close(context.Background())
	}

	tel, err := telemetry.NewProvider(context.Background(), telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  "linklens",
		Version:  version,
	})
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		tel.Shutdown(ctx)
	}()

	srv := server.New(server.Options{
		Config:        cfg,
		Engine:        engine,
		Emitter:       emitter,
		Store:         store,
		Telemetry:     tel,
		BundleVersion: bundle.Version,
		ModelLoaded:   bundle.Loaded(),
	})

	log.Printf("Starting LinkLens on %s...", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// loadBundle loads the trained model bundle, falling back to the stub
// classifier unless the config demands a real model.
func loadBundle(cfg *config.Config) *phishguard.Bundle {
	dir := cfg.Model.BundleDir
	if dir == "" {
		log.Printf("no model bundle configured; running with stub classifier")
		return phishguard.StubBundle()
	}
	bundle, err := phishguard.Load(dir)
	if err != nil {
		if cfg.Model.RequireModel {
			log.Fatalf("load model bundle: %v", err)
		}
		if errors.Is(err, phishguard.ErrBundleNotFound) {
			redact.Logf("model bundle not found at %s; running with stub classifier", dir)
		} else {
			redact.Logf("model bundle load failed (%v); running with stub classifier", err)
		}
		return phishguard.StubBundle()
	}
	log.Printf("model bundle %s loaded from %s", bundle.Version, dir)
	return bundle
}

func buildEmitter(cfg *config.Config) *audit.Emitter {
	if len(cfg.Audit.Sinks) == 0 {
		return nil
	}
	var sinks []audit.Sink
	for _, sc := range cfg.Audit.Sinks {
		switch sc.Type {
		case "file_jsonl":
			sink, err := audit.NewFileSink(sc.Path)
			if err != nil {
				log.Fatalf("audit file sink: %v", err)
			}
			sinks = append(sinks, sink)
		case "webhook":
			sink, err := audit.NewWebhookSink(sc.URL, nil, 0)
			if err != nil {
				log.Fatalf("audit webhook sink: %v", err)
			}
			sinks = append(sinks, sink)
		}
	}
	return audit.NewEmitter(audit.EmitterConfig{
		QueueSize: cfg.Audit.QueueSize,
		Workers:   cfg.Audit.Workers,
	}, sinks)
}
