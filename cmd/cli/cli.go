package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"metafilter/internal/crawler"
	"metafilter/internal/filter"
	"metafilter/internal/ioformats"
	"metafilter/internal/models"
	"metafilter/internal/parser"
	"metafilter/pkg/logger"
)

// Dependencies holds the process streams shared by every command.
type Dependencies struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	LogLevel string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level for stderr output"`

	Extract ExtractCmd `cmd:"" help:"Extract metadata from local HTML files"`
	Crawl   CrawlCmd   `cmd:"" help:"Fetch URLs and extract their metadata"`
	Search  SearchCmd  `cmd:"" help:"Filter metadata records by a query"`
}

// ExtractCmd reads HTML files and prints one metadata record per file.
type ExtractCmd struct {
	Files []string `arg:"" optional:"" help:"HTML files to read (stdin when none)"`
}

func (c *ExtractCmd) Run(deps *Dependencies) error {
	p := parser.New()
	files := c.Files
	if len(files) == 0 {
		files = []string{"-"}
	}
	records := make([]models.Metadata, 0, len(files))
	for _, name := range files {
		md, err := extractFile(p, name, deps.Stdin)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		records = append(records, md)
	}
	return ioformats.WriteNDJSON(deps.Stdout, records)
}

func extractFile(p *parser.Parser, name string, stdin io.Reader) (models.Metadata, error) {
	if name == "-" {
		return p.Extract(stdin, "")
	}
	f, err := os.Open(name)
	if err != nil {
		return models.Metadata{}, err
	}
	defer f.Close()
	return p.Extract(f, "")
}

// CrawlCmd fetches every URL in the input file.
type CrawlCmd struct {
	Input       string        `short:"i" required:"" type:"existingfile" help:"Input file (csv with 'url' column or ndjson)"`
	Output      string        `short:"o" help:"Output NDJSON file (default stdout)"`
	Concurrency int           `short:"c" default:"10" help:"Worker concurrency"`
	Timeout     time.Duration `short:"t" default:"15s" help:"Fetch timeout per page"`
	RateLimit   float64       `name:"rate-limit" default:"0" help:"Requests per second per host (0 disables)"`
	SizeCap     int64         `name:"size-cap" default:"5242880" help:"Maximum bytes read per page"`
}

func (c *CrawlCmd) Run(deps *Dependencies, cli *CLI) error {
	urls, err := ioformats.ReadURLs(c.Input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	batch := &crawler.Batch{
		Fetcher:     crawler.NewHTTPClient(c.Timeout, 5*time.Second, c.SizeCap, crawler.WithRateLimit(c.RateLimit)),
		Extractor:   parser.New(),
		Concurrency: c.Concurrency,
		Logger:      logger.New(deps.Stderr, cli.LogLevel),
	}
	outcomes := batch.Run(deps.Ctx, urls)

	w := deps.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	return ioformats.WriteNDJSON(w, outcomes)
}

// SearchCmd filters a records file. Multiple query arguments are joined
// with spaces, so `search foo bar` is the two-term query "foo bar".
type SearchCmd struct {
	Records string   `short:"r" required:"" type:"existingfile" help:"NDJSON records (metadata or crawl output)"`
	Query   []string `arg:"" optional:"" help:"Search query"`
}

func (c *SearchCmd) Run(deps *Dependencies) error {
	records, err := ioformats.ReadRecords(c.Records)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	return ioformats.WriteNDJSON(deps.Stdout, filter.Filter(records, strings.Join(c.Query, " ")))
}
