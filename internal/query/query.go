package query

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chengna/nksearch/internal/engine"
)

// Default shape shared by the multi-clause queries.
const (
	defaultSize     = 20
	defaultSlop     = 2
	defaultAnalyzer = "ik_max_word"
)

var defaultFields = []string{"content", "title"}

// Searcher is the slice of the engine client the query layer needs.
type Searcher interface {
	Search(ctx context.Context, body map[string]any) (engine.Results, error)
}

// Service builds and executes the portal's five query shapes. Every operation
// tolerates empty input by returning a zero result without contacting the
// engine, and engine failures come back as errors for the caller to degrade.
type Service struct {
	ES Searcher
}

// Snapshot is the outcome of a snapshot lookup; unlike the hit-list queries
// callers need an explicit found/not-found signal.
type Snapshot struct {
	Found     bool
	IndexedAt time.Time
	Document  engine.Document
}

// Site looks up pages by exact URL, optionally narrowed by a full-text match
// on content.
func (s *Service) Site(ctx context.Context, site, keyword string) (engine.Results, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return engine.Results{}, nil
	}

	must := []map[string]any{
		{"term": map[string]any{"url": site}},
	}
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		must = append(must, map[string]any{"match": map[string]any{"content": keyword}})
	}
	body := map[string]any{
		"query": map[string]any{"bool": map[string]any{"must": must}},
		"size":  defaultSize,
	}
	return s.ES.Search(ctx, body)
}

// Document dispatches the input through Classify: numeric id lookup, file
// type lookup, or analyzed multi-field match.
func (s *Service) Document(ctx context.Context, input string) (engine.Results, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return engine.Results{}, nil
	}

	var q map[string]any
	switch c := Classify(input); c.Kind {
	case KindNumericID:
		q = map[string]any{"term": map[string]any{"doc_id": input}}
	case KindFileType:
		q = map[string]any{"term": map[string]any{"file_type": c.FileType}}
	default:
		q = map[string]any{"multi_match": map[string]any{
			"query":    input,
			"fields":   defaultFields,
			"analyzer": defaultAnalyzer,
		}}
	}
	return s.ES.Search(ctx, map[string]any{"query": q, "size": defaultSize})
}

// PhraseOptions tune a phrase search; zero values take the defaults.
type PhraseOptions struct {
	Slop     int
	Fields   []string
	Analyzer string
}

// Phrase OR-combines a match_phrase clause per phrase and field, requiring at
// least one to match, and asks for bold-tag highlighting on every field.
func (s *Service) Phrase(ctx context.Context, phrases []string, opts PhraseOptions) (engine.Results, error) {
	var clean []string
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		return engine.Results{}, nil
	}

	slop := opts.Slop
	if slop == 0 {
		slop = defaultSlop
	}
	fields := opts.Fields
	if len(fields) == 0 {
		fields = defaultFields
	}
	analyzer := opts.Analyzer
	if analyzer == "" {
		analyzer = defaultAnalyzer
	}

	var should []map[string]any
	for _, phrase := range clean {
		for _, field := range fields {
			should = append(should, map[string]any{
				"match_phrase": map[string]any{
					field: map[string]any{
						"query":    phrase,
						"slop":     slop,
						"analyzer": analyzer,
					},
				},
			})
		}
	}

	highlight := map[string]any{}
	for _, field := range fields {
		highlight[field] = map[string]any{
			"pre_tags":  []string{"<b>"},
			"post_tags": []string{"</b>"},
		}
	}

	body := map[string]any{
		"query": map[string]any{"bool": map[string]any{
			"should":               should,
			"minimum_should_match": 1,
		}},
		"highlight": map[string]any{"fields": highlight},
		"size":      defaultSize,
	}
	return s.ES.Search(ctx, body)
}

// Wildcard runs one pattern across the default fields with the title boosted
// double. A leading wildcard is allowed but logged, since the engine cannot
// use the term index for it.
func (s *Service) Wildcard(ctx context.Context, pattern string) (engine.Results, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return engine.Results{}, nil
	}
	if strings.HasPrefix(pattern, "*") || strings.HasPrefix(pattern, "?") {
		log.Warn().Str("pattern", pattern).Msg("leading wildcard may be slow")
	}

	var should []map[string]any
	highlight := map[string]any{}
	for _, field := range defaultFields {
		boost := 1.0
		if field == "title" {
			boost = 2.0
		}
		should = append(should, map[string]any{
			"wildcard": map[string]any{
				field: map[string]any{"value": pattern, "boost": boost},
			},
		})
		highlight[field] = map[string]any{}
	}

	body := map[string]any{
		"query": map[string]any{"bool": map[string]any{
			"should":               should,
			"minimum_should_match": 1,
		}},
		"highlight": map[string]any{"fields": highlight},
		"size":      defaultSize,
	}
	return s.ES.Search(ctx, body)
}

// WebSnapshot retrieves the stored copy of one URL. An empty URL or a miss
// yields Found == false without error.
func (s *Service) WebSnapshot(ctx context.Context, pageURL string) (Snapshot, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return Snapshot{}, nil
	}

	body := map[string]any{
		"query": map[string]any{"term": map[string]any{"url": pageURL}},
		"size":  1,
	}
	res, err := s.ES.Search(ctx, body)
	if err != nil {
		return Snapshot{}, err
	}
	if res.Total == 0 || len(res.Hits) == 0 {
		return Snapshot{}, nil
	}
	doc := res.Hits[0].Source
	return Snapshot{Found: true, IndexedAt: doc.IndexedAt, Document: doc}, nil
}
