package crawl

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// Row is one title → (url, filename) mapping record.
type Row struct {
	Title    string
	URL      string
	Filename string
}

// Mapping accumulates rows during one crawl run and is flushed to CSV exactly
// once at the end. Adding a title that is already present overwrites its row
// in place, preserving first-seen order, which matches re-discovering the
// same article on a later index page.
type Mapping struct {
	rows    []Row
	byTitle map[string]int
	flushed bool
}

func NewMapping() *Mapping {
	return &Mapping{byTitle: make(map[string]int)}
}

// Add records or refreshes the row for title.
func (m *Mapping) Add(title, url, filename string) {
	if i, ok := m.byTitle[title]; ok {
		m.rows[i] = Row{Title: title, URL: url, Filename: filename}
		return
	}
	m.byTitle[title] = len(m.rows)
	m.rows = append(m.rows, Row{Title: title, URL: url, Filename: filename})
}

// Len returns the number of accumulated rows.
func (m *Mapping) Len() int { return len(m.rows) }

// Rows returns the accumulated rows in first-seen order.
func (m *Mapping) Rows() []Row { return m.rows }

// Flush writes the table to path as CSV with a title,url,filename header.
// Only the first call writes; later calls are no-ops so a deferred flush and
// an explicit one cannot double-write. On failure the table's contents are
// logged instead of being lost silently.
func (m *Mapping) Flush(path string) error {
	if m.flushed {
		return nil
	}
	m.flushed = true

	if len(m.rows) == 0 {
		log.Warn().Msg("no articles were processed, skipping mapping flush")
		return nil
	}

	if err := m.writeCSV(path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("mapping flush failed, dumping rows")
		for _, r := range m.rows {
			log.Error().Str("title", r.Title).Str("url", r.URL).Str("filename", r.Filename).Msg("unsaved mapping row")
		}
		return fmt.Errorf("flush mapping: %w", err)
	}
	log.Info().Int("rows", len(m.rows)).Str("path", path).Msg("saved article mapping")
	return nil
}

func (m *Mapping) writeCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"title", "url", "filename"}); err != nil {
		return err
	}
	for _, r := range m.rows {
		if err := w.Write([]string{r.Title, r.URL, r.Filename}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// LoadMapping reads a mapping CSV written by Flush. The header row is
// skipped and short rows are ignored.
func LoadMapping(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}

	var rows []Row
	for i, rec := range records {
		if i == 0 {
			continue
		}
		if len(rec) < 3 {
			log.Warn().Int("line", i+1).Msg("skipping short mapping row")
			continue
		}
		rows = append(rows, Row{Title: rec[0], URL: rec[1], Filename: rec[2]})
	}
	return rows, nil
}
