package engine

import (
	"time"

	"github.com/chengna/nksearch/internal/extract"
)

// IndexName is the Elasticsearch index all portal data lives in.
const IndexName = "web_pages"

// indexSettings configures the index created by EnsureIndex: single shard, no
// replicas, and the two ik analyzers bound to the analyzed-text fields. ik_max_word
// segments maximally for recall; ik_smart segments coarsely.
const indexSettings = `
{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "ik_max_word": {"type": "custom", "tokenizer": "ik_max_word"},
        "ik_smart": {"type": "custom", "tokenizer": "ik_smart"}
      }
    }
  },
  "mappings": {
    "properties": {
      "url": {"type": "keyword"},
      "title": {"type": "text", "analyzer": "ik_max_word"},
      "content": {"type": "text", "analyzer": "ik_max_word"},
      "pagerank": {"type": "float"},
      "domain": {"type": "keyword"},
      "date": {"type": "date"},
      "indexed_at": {"type": "date"},
      "anchor_texts": {
        "type": "nested",
        "properties": {
          "text": {"type": "text", "analyzer": "ik_max_word"},
          "url": {"type": "keyword"}
        }
      }
    }
  }
}`

// Document is the unit stored in the index, keyed by URL.
type Document struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Domain  string `json:"domain"`
	// Date is the calendar date parsed out of the URL, absent when the URL
	// carries none.
	Date string `json:"date,omitempty"`
	// PageRank is a fixed placeholder; no scoring pass updates it.
	PageRank    float64          `json:"pagerank"`
	IndexedAt   time.Time        `json:"indexed_at"`
	AnchorTexts []extract.Anchor `json:"anchor_texts"`
}

// Hit is a single search hit with its score and any requested highlights.
type Hit struct {
	Score      float64             `json:"_score"`
	Source     Document            `json:"_source"`
	Highlights map[string][]string `json:"highlight,omitempty"`
}

// Results carries the hits for one search along with the engine's total,
// which may exceed len(Hits) when the query was size-capped.
type Results struct {
	Total int64
	Hits  []Hit
}

type searchEnvelope struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

type getEnvelope struct {
	Found  bool     `json:"found"`
	Source Document `json:"_source"`
}

type countEnvelope struct {
	Count int64 `json:"count"`
}
