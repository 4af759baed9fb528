package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/linklens-ai/linklens/internal/config"
	"github.com/linklens-ai/linklens/internal/explain"
	"github.com/linklens-ai/linklens/internal/features"
	"github.com/linklens-ai/linklens/internal/phishguard"
	"github.com/linklens-ai/linklens/internal/scoring"
)

func main() {
	cfgPath := flag.String("config", "", "path to config yaml (optional; stub classifier when omitted)")
	n := flag.Int("n", 1000, "number of iterations")
	workers := flag.Int("workers", 4, "concurrent workers")
	url := flag.String("url", "https://paypal-secure-login-verify.com/signin/?session=12345", "url to score")
	flag.Parse()

	bundle := phishguard.StubBundle()
	bundleNote := "stub"
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		if cfg.Model.BundleDir != "" {
			loaded, err := phishguard.Load(cfg.Model.BundleDir)
			if err != nil {
				log.Fatalf("load model bundle: %v", err)
			}
			bundle = loaded
			bundleNote = cfg.Model.BundleDir
		}
	}
	defer bundle.Close()

	engine := scoring.NewEngine(
		features.NewExtractor(features.DefaultWordlists()),
		bundle.Model,
		explain.NewGenerator(bundle.Baselines, bundle.Importance),
	)

	// Warmup
	for i := 0; i < 5; i++ {
		engine.Analyze(*url)
	}

	if *n <= 0 {
		*n = 1
	}
	if *workers <= 0 {
		*workers = 1
	}

	var (
		mu        sync.Mutex
		durations = make([]time.Duration, 0, *n)
	)

	perWorker := *n / *workers
	if perWorker == 0 {
		perWorker = 1
	}

	started := time.Now()
	var g errgroup.Group
	for w := 0; w < *workers; w++ {
		g.Go(func() error {
			local := make([]time.Duration, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				start := time.Now()
				engine.Analyze(*url)
				local = append(local, time.Since(start))
			}
			mu.Lock()
			durations = append(durations, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("bench failed: %v", err)
	}
	wall := time.Since(started)

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	avg := float64(total.Microseconds()) / 1000.0 / float64(len(durations))
	p50 := float64(durations[len(durations)/2].Microseconds()) / 1000.0
	p95 := float64(durations[int(float64(len(durations))*0.95)].Microseconds()) / 1000.0
	throughput := float64(len(durations)) / wall.Seconds()

	fmt.Printf("bench: n=%d workers=%d avg_ms=%.3f p50_ms=%.3f p95_ms=%.3f scans_per_s=%.0f bundle=%s\n",
		len(durations),
		*workers,
		avg,
		p50,
		p95,
		throughput,
		bundleNote,
	)
}
