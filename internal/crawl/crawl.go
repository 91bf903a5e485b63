package crawl

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/chengna/nksearch/internal/extract"
	"github.com/chengna/nksearch/internal/fetch"
	"github.com/chengna/nksearch/internal/pagestore"
)

// articlePathRe matches the dated article path segment used by the news site,
// e.g. /system/2008/09/16/000018566.shtml.
var articlePathRe = regexp.MustCompile(`/system/\d{4}/`)

// Crawler walks index pages, discovers article links and persists each
// article's raw HTML through the page store. Per-item failures are logged and
// skipped; the only shared state across seeds is the mapping and the disk.
type Crawler struct {
	Fetcher *fetch.Client
	Store   *pagestore.Store
}

// Run processes every seed index page in order, appending discovered articles
// to m. It stops early only on context cancellation; the caller owns flushing
// m in every exit path.
func (c *Crawler) Run(ctx context.Context, seeds []string, m *Mapping) error {
	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			log.Warn().Msg("crawl interrupted")
			return err
		}
		log.Info().Int("page", i+1).Int("total", len(seeds)).Str("url", seed).Msg("processing index page")

		body, err := c.Fetcher.Get(ctx, seed)
		if err != nil {
			log.Error().Err(err).Str("url", seed).Msg("index page fetch failed")
			continue
		}

		for _, link := range DiscoverArticles(body, seed) {
			if err := ctx.Err(); err != nil {
				log.Warn().Msg("crawl interrupted")
				return err
			}
			c.saveArticle(ctx, link, m)
		}
	}
	return nil
}

// DiscoverArticles extracts the article links on an index page: anchors whose
// resolved href contains a dated /system/ segment, with visible text and not
// pointing back at an index page.
func DiscoverArticles(indexHTML []byte, pageURL string) []extract.Anchor {
	page := extract.FromHTML(indexHTML, pageURL)
	var links []extract.Anchor
	for _, a := range page.Anchors {
		if !articlePathRe.MatchString(a.URL) {
			continue
		}
		if strings.Contains(a.URL, "index.shtml") {
			continue
		}
		links = append(links, a)
	}
	return links
}

// saveArticle fetches and stores one article unless its file already exists.
// The mapping row is (re)written either way, so a re-crawl refreshes the
// table without re-fetching stored pages.
func (c *Crawler) saveArticle(ctx context.Context, link extract.Anchor, m *Mapping) {
	title := pagestore.SanitizeTitle(link.Text)
	filename := pagestore.Filename(link.Text, link.URL)

	if c.Store.Has(filename) {
		log.Debug().Str("filename", filename).Msg("skipping existing file")
		m.Add(title, link.URL, filename)
		return
	}

	body, err := c.Fetcher.Get(ctx, link.URL)
	if err != nil {
		log.Error().Err(err).Str("url", link.URL).Msg("article fetch failed")
		return
	}
	if err := c.Store.Save(filename, body); err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("article save failed")
		return
	}
	log.Info().Str("filename", filename).Msg("saved article")
	m.Add(title, link.URL, filename)
}
