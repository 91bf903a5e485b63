package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/chengna/nksearch/internal/extract"
)

// newFakeES stands up an httptest server speaking just enough of the
// Elasticsearch wire protocol. The product header is required or the v8
// client refuses to talk to the server.
func newFakeES(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestEnsureIndex_ExistingIndexIsNoOp(t *testing.T) {
	var created bool
	c := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method == http.MethodPut {
			created = true
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := c.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if created {
		t.Fatal("existing index must not be re-created")
	}
}

func TestEnsureIndex_CreatesMissingIndex(t *testing.T) {
	var createBody string
	c := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			b, _ := io.ReadAll(r.Body)
			createBody = r.URL.Path + " " + string(b)
			fmt.Fprint(w, `{"acknowledged":true}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	if err := c.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !strings.Contains(createBody, "/web_pages") {
		t.Fatalf("create hit wrong path: %q", createBody)
	}
	for _, want := range []string{"ik_max_word", "ik_smart", `"nested"`, `"number_of_shards": 1`} {
		if !strings.Contains(createBody, want) {
			t.Errorf("create body missing %q", want)
		}
	}
}

func TestUpsert_KeyedByURL(t *testing.T) {
	var docID string
	c := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/web_pages/_doc/")
		if unesc, err := url.PathUnescape(id); err == nil {
			id = unesc
		}
		docID = id
		fmt.Fprint(w, `{"result":"created"}`)
	})

	doc := Document{
		URL:      "http://news.nankai.edu.cn/x",
		Title:    "t",
		PageRank: 1.0,
	}
	if err := c.Upsert(context.Background(), doc); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if docID != doc.URL {
		t.Fatalf("document id = %q, want %q", docID, doc.URL)
	}
}

func TestSearch_DecodesEnvelope(t *testing.T) {
	c := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{
				"total": map[string]any{"value": 42},
				"hits": []map[string]any{
					{
						"_score": 1.5,
						"_source": map[string]any{
							"url":   "http://a/b",
							"title": "hit title",
							"anchor_texts": []map[string]any{
								{"text": "t1", "url": "http://a/c"},
							},
						},
						"highlight": map[string]any{"title": []string{"<b>hit</b> title"}},
					},
				},
			},
		})
	})

	got, err := c.Search(context.Background(), map[string]any{"query": map[string]any{"match_all": map[string]any{}}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got.Total != 42 || len(got.Hits) != 1 {
		t.Fatalf("unexpected results: %+v", got)
	}
	hit := got.Hits[0]
	if hit.Source.Title != "hit title" || hit.Score != 1.5 {
		t.Fatalf("unexpected hit: %+v", hit)
	}
	if len(hit.Source.AnchorTexts) != 1 || hit.Source.AnchorTexts[0] != (extract.Anchor{Text: "t1", URL: "http://a/c"}) {
		t.Fatalf("unexpected anchors: %+v", hit.Source.AnchorTexts)
	}
	if hit.Highlights["title"][0] != "<b>hit</b> title" {
		t.Fatalf("unexpected highlight: %+v", hit.Highlights)
	}
}

func TestGetByID_Miss(t *testing.T) {
	c := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"found":false}`)
	})
	if _, err := c.GetByID(context.Background(), "http://nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByID_Hit(t *testing.T) {
	c := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"found": true,
			"_source": map[string]any{
				"url":        "http://a/b",
				"content":    "body",
				"indexed_at": time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			},
		})
	})
	doc, err := c.GetByID(context.Background(), "http://a/b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Content != "body" || doc.IndexedAt.IsZero() {
		t.Fatalf("unexpected doc: %+v", doc)
	}
}

func TestCount(t *testing.T) {
	c := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":7}`)
	})
	n, err := c.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 7 {
		t.Fatalf("count = %d, want 7", n)
	}
}
