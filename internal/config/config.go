package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config is the single-file configuration shared by the crawler, indexer and
// portal binaries. Nested sections map naturally to the YAML file and to flags.
type Config struct {
	Elastic struct {
		Addresses []string `yaml:"addresses"`
		Username  string   `yaml:"username"`
		Password  string   `yaml:"password"`
		Index     string   `yaml:"index"`
	} `yaml:"elastic"`

	Crawl struct {
		// Seeds lists the index pages to walk. When empty, DefaultSeeds()
		// supplies the news-site archive pages.
		Seeds      []string      `yaml:"seeds"`
		Origin     string        `yaml:"origin"`
		PagesDir   string        `yaml:"pagesDir"`
		MappingCSV string        `yaml:"mappingCSV"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"crawl"`

	Portal struct {
		Listen   string `yaml:"listen"`
		QueryLog string `yaml:"queryLog"`
	} `yaml:"portal"`

	Verbose bool `yaml:"verbose"`
}

// Default returns a Config populated with the values the binaries assume when
// no file or flags are given.
func Default() Config {
	var c Config
	c.Elastic.Addresses = []string{"http://localhost:9200"}
	c.Elastic.Username = "elastic"
	c.Elastic.Password = "123456"
	c.Elastic.Index = "web_pages"
	c.Crawl.Origin = "https://news.nankai.edu.cn"
	c.Crawl.PagesDir = "pages"
	c.Crawl.MappingCSV = "title2url.csv"
	c.Crawl.Timeout = 15 * time.Second
	c.Portal.Listen = ":8080"
	c.Portal.QueryLog = "search_log.txt"
	return c
}

// Load reads a YAML config file over the defaults. A missing path returns the
// defaults unchanged so every binary can run without a file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate performs minimal schema validation for required settings.
func Validate(cfg Config) error {
	if len(cfg.Elastic.Addresses) == 0 {
		return errors.New("config: elastic.addresses is required")
	}
	if strings.TrimSpace(cfg.Elastic.Index) == "" {
		return errors.New("config: elastic.index is required")
	}
	if strings.TrimSpace(cfg.Crawl.PagesDir) == "" {
		return errors.New("config: crawl.pagesDir is required")
	}
	if strings.TrimSpace(cfg.Crawl.MappingCSV) == "" {
		return errors.New("config: crawl.mappingCSV is required")
	}
	if cfg.Crawl.Timeout < 0 {
		return errors.New("config: negative timeout is not allowed")
	}
	return nil
}

// DefaultSeeds expands the fixed archive listing of the news site: numbered
// index pages 10 through 67 plus the section front page.
func DefaultSeeds(origin string) []string {
	origin = strings.TrimRight(origin, "/")
	seeds := make([]string, 0, 59)
	for i := 10; i < 68; i++ {
		seeds = append(seeds, fmt.Sprintf(
			"%s/nkrw/system/count//0008000/000000000000/000/000/c0008000000000000000_0000000%d.shtml",
			origin, i))
	}
	seeds = append(seeds, origin+"/nkrw/index.shtml")
	return seeds
}

// Seeds returns the configured seed list, falling back to DefaultSeeds.
func (c Config) Seeds() []string {
	if len(c.Crawl.Seeds) > 0 {
		return c.Crawl.Seeds
	}
	return DefaultSeeds(c.Crawl.Origin)
}
