package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chengna/nksearch/internal/config"
	"github.com/chengna/nksearch/internal/crawl"
	"github.com/chengna/nksearch/internal/fetch"
	"github.com/chengna/nksearch/internal/pagestore"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath string
		pagesDir   string
		mappingCSV string
		origin     string
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&pagesDir, "pages", "", "Directory for crawled HTML files (overrides config)")
	flag.StringVar(&mappingCSV, "mapping", "", "Path for the title→url mapping CSV (overrides config)")
	flag.StringVar(&origin, "origin", "", "News site origin (overrides config)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if pagesDir != "" {
		cfg.Crawl.PagesDir = pagesDir
	}
	if mappingCSV != "" {
		cfg.Crawl.MappingCSV = mappingCSV
	}
	if origin != "" {
		cfg.Crawl.Origin = origin
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	if verbose || cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	crawler := &crawl.Crawler{
		Fetcher: &fetch.Client{UserAgent: "nksearch/1.0", Timeout: cfg.Crawl.Timeout},
		Store:   &pagestore.Store{Dir: cfg.Crawl.PagesDir},
	}
	mapping := crawl.NewMapping()
	// The mapping is flushed exactly once no matter how the run ends; Flush
	// itself guards against double writes.
	defer func() {
		_ = mapping.Flush(cfg.Crawl.MappingCSV)
	}()

	seeds := cfg.Seeds()
	log.Info().Int("seeds", len(seeds)).Str("pages", cfg.Crawl.PagesDir).Str("mapping", cfg.Crawl.MappingCSV).Msg("starting crawl")

	if err := crawler.Run(ctx, seeds, mapping); err != nil {
		log.Warn().Err(err).Msg("crawl stopped early, saving accumulated mapping")
		_ = mapping.Flush(cfg.Crawl.MappingCSV)
		os.Exit(1)
	}

	if err := mapping.Flush(cfg.Crawl.MappingCSV); err != nil {
		os.Exit(1)
	}
	log.Info().Int("articles", mapping.Len()).Msg("crawl completed")
}
