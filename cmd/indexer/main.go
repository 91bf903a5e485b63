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
	"github.com/chengna/nksearch/internal/engine"
	"github.com/chengna/nksearch/internal/indexer"
	"github.com/chengna/nksearch/internal/pagestore"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath string
		pagesDir   string
		mappingCSV string
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&pagesDir, "pages", "", "Directory holding crawled HTML files (overrides config)")
	flag.StringVar(&mappingCSV, "mapping", "", "Path to the title→url mapping CSV (overrides config)")
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

	eng, err := engine.New(engine.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
		Index:     cfg.Elastic.Index,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect engine")
	}

	rows, err := crawl.LoadMapping(cfg.Crawl.MappingCSV)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Crawl.MappingCSV).Msg("load mapping")
	}
	log.Info().Int("rows", len(rows)).Msg("starting ingestion")

	ix := &indexer.Indexer{Engine: eng, Store: &pagestore.Store{Dir: cfg.Crawl.PagesDir}}
	stats, err := ix.Run(ctx, rows)
	if err != nil {
		log.Error().Err(err).Int("success", stats.Success).Int("failure", stats.Failure).Msg("ingestion stopped")
		os.Exit(1)
	}
	log.Info().Int("success", stats.Success).Int("failure", stats.Failure).Msg("ingestion completed")
}
