package pagestore

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Store keeps one HTML file per crawled article under Dir. Filenames are
// content-addressed by the article URL so repeated crawls of the same link
// land on the same file.
type Store struct {
	Dir string
}

func (s *Store) ensureDir() error {
	if s == nil || s.Dir == "" {
		return errors.New("pages dir not configured")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

// Filename derives the storage name for an article: the sanitized title, an
// underscore, and the first 8 hex characters of md5(url).
func Filename(title, url string) string {
	sum := md5.Sum([]byte(url))
	return SanitizeTitle(title) + "_" + hex.EncodeToString(sum[:])[:8] + ".html"
}

// SanitizeTitle replaces characters that are illegal in filenames.
func SanitizeTitle(title string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, title)
}

// Has reports whether the named file already exists on disk.
func (s *Store) Has(filename string) bool {
	if s == nil || s.Dir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(s.Dir, filename))
	return err == nil
}

// Save writes the raw article body. Files are written whole; a partially
// crawled article is never left behind because a failed write returns the
// os error to the caller, who skips the mapping for it only on Save failure.
func (s *Store) Save(filename string, body []byte) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Dir, filename), body, 0o644)
}

// Load reads a stored article body back.
func (s *Store) Load(filename string) ([]byte, error) {
	if s == nil || s.Dir == "" {
		return nil, errors.New("pages dir not configured")
	}
	return os.ReadFile(filepath.Join(s.Dir, filename))
}
