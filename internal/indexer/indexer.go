package indexer

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chengna/nksearch/internal/crawl"
	"github.com/chengna/nksearch/internal/engine"
	"github.com/chengna/nksearch/internal/extract"
	"github.com/chengna/nksearch/internal/pagestore"
)

// refreshEvery is how many documents are written between refresh barriers.
const refreshEvery = 10

var datePathRe = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)

// Indexer loads crawled HTML back off disk and writes one search document per
// mapping row.
type Indexer struct {
	Engine *engine.Client
	Store  *pagestore.Store
}

// Stats counts the outcome of one ingestion run.
type Stats struct {
	Success int
	Failure int
}

// Run ingests every mapping row. Per-row failures are counted and logged; the
// batch never aborts on one bad document. The index schema is ensured once up
// front, and a refresh barrier is issued every few documents and at the end so
// writes become searchable promptly.
func (ix *Indexer) Run(ctx context.Context, rows []crawl.Row) (Stats, error) {
	if err := ix.Engine.EnsureIndex(ctx); err != nil {
		return Stats{}, err
	}

	var stats Stats
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		log.Info().Int("row", i+1).Str("title", row.Title).Msg("indexing record")

		if err := ix.indexOne(ctx, row); err != nil {
			log.Error().Err(err).Str("url", row.URL).Msg("index document failed")
			stats.Failure++
		} else {
			stats.Success++
		}

		if (i+1)%refreshEvery == 0 {
			if err := ix.Engine.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("periodic refresh failed")
			}
			log.Info().Int("processed", i+1).Int("success", stats.Success).Int("failure", stats.Failure).Msg("progress")
		}
	}

	if err := ix.Engine.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("final refresh failed")
	}
	if count, err := ix.Engine.Count(ctx); err == nil {
		log.Info().Int64("documents", count).Msg("index document count")
	}
	return stats, nil
}

func (ix *Indexer) indexOne(ctx context.Context, row crawl.Row) error {
	raw, err := ix.Store.Load(row.Filename)
	if err != nil {
		return fmt.Errorf("load html: %w", err)
	}

	page := extract.FromHTML(raw, row.URL)
	doc := engine.Document{
		URL:         row.URL,
		Title:       row.Title,
		Content:     page.Text,
		Domain:      Domain(row.URL),
		Date:        DateFromURL(row.URL),
		PageRank:    1.0,
		IndexedAt:   time.Now().UTC(),
		AnchorTexts: page.Anchors,
	}
	return ix.Engine.Upsert(ctx, doc)
}

// Domain extracts the URL authority, empty when the URL cannot be parsed.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// DateFromURL finds a YYYY-MM-DD or YYYY/MM/DD shaped substring in the URL
// and normalizes it to a zero-padded ISO date. Empty when the URL carries no
// date.
func DateFromURL(rawURL string) string {
	m := datePathRe.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("%s-%02d-%02d", m[1], month, day)
}
