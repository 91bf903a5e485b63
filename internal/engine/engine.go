package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog/log"
)

// ErrNotFound reports a get-by-id miss.
var ErrNotFound = errors.New("document not found")

// Client wraps the Elasticsearch client for the one index this system uses.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// Config carries the engine connection settings.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	// Index defaults to IndexName when empty.
	Index string
}

// New connects a Client. The connection is lazy; the first request surfaces
// connectivity errors.
func New(cfg Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("engine client: %w", err)
	}
	index := cfg.Index
	if index == "" {
		index = IndexName
	}
	return &Client{es: es, index: index}, nil
}

// EnsureIndex creates the index with its settings and mappings when it does
// not exist yet. It never mutates an existing index.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists check: %w", err)
	}
	io.Copy(io.Discard, res.Body)
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		// fall through to create
	default:
		return fmt.Errorf("index exists check: status %d", res.StatusCode)
	}

	created, err := c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithBody(bytes.NewReader([]byte(indexSettings))),
		c.es.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer created.Body.Close()
	if created.IsError() {
		return fmt.Errorf("create index: %s", created.String())
	}
	log.Info().Str("index", c.index).Msg("created index")
	return nil
}

// Upsert writes doc keyed by its URL; re-indexing the same URL overwrites the
// previous document whole.
func (c *Client) Upsert(ctx context.Context, doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	// Document ids are URLs; escape so their slashes survive the _doc path.
	res, err := c.es.Index(c.index, bytes.NewReader(payload),
		c.es.Index.WithDocumentID(url.PathEscape(doc.URL)),
		c.es.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index %s: %w", doc.URL, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index %s: %s", doc.URL, res.String())
	}
	return nil
}

// Refresh makes recently written documents visible to searches.
func (c *Client) Refresh(ctx context.Context) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithIndex(c.index),
		c.es.Indices.Refresh.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("refresh: %s", res.String())
	}
	return nil
}

// Count returns the number of documents currently visible in the index.
func (c *Client) Count(ctx context.Context) (int64, error) {
	res, err := c.es.Count(
		c.es.Count.WithIndex(c.index),
		c.es.Count.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("count: %s", res.String())
	}
	var env countEnvelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return 0, fmt.Errorf("decode count: %w", err)
	}
	return env.Count, nil
}

// GetByID fetches the stored document for a URL, or ErrNotFound.
func (c *Client) GetByID(ctx context.Context, docURL string) (Document, error) {
	res, err := c.es.Get(c.index, url.PathEscape(docURL), c.es.Get.WithContext(ctx))
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", docURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return Document{}, ErrNotFound
	}
	if res.IsError() {
		return Document{}, fmt.Errorf("get %s: %s", docURL, res.String())
	}
	var env getEnvelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return Document{}, fmt.Errorf("decode get: %w", err)
	}
	if !env.Found {
		return Document{}, ErrNotFound
	}
	return env.Source, nil
}

// Search runs a raw query body against the index and decodes the hit
// envelope. Callers build bodies with the query package.
func (c *Client) Search(ctx context.Context, body map[string]any) (Results, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Results{}, fmt.Errorf("marshal query: %w", err)
	}
	res, err := c.es.Search(
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
		c.es.Search.WithContext(ctx))
	if err != nil {
		return Results{}, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Results{}, fmt.Errorf("search: %s", res.String())
	}
	var env searchEnvelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return Results{}, fmt.Errorf("decode search: %w", err)
	}
	return Results{Total: env.Hits.Total.Value, Hits: env.Hits.Hits}, nil
}
