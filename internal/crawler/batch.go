package crawler

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"metafilter/internal/models"
)

// Fetcher retrieves an HTML page; HTTPClient implements it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, string, time.Duration, error)
}

// Extractor turns an HTML body into metadata; parser.Parser implements it.
type Extractor interface {
	Extract(r io.Reader, contentType string) (models.Metadata, error)
}

var _ Fetcher = (*HTTPClient)(nil)

const DefaultConcurrency = 10

// Batch fetches and extracts many URLs with bounded concurrency.
type Batch struct {
	Fetcher     Fetcher
	Extractor   Extractor
	Concurrency int
	Timeout     time.Duration // per URL; zero means no extra deadline
	Logger      *slog.Logger
}

// One fetches and extracts a single URL.
func (b *Batch) One(ctx context.Context, rawURL string) (models.CrawlResult, error) {
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}
	body, finalURL, ct, fetchTime, err := b.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return models.CrawlResult{}, err
	}
	defer body.Close()

	md, err := b.Extractor.Extract(body, ct)
	if err != nil {
		return models.CrawlResult{}, err
	}
	return models.CrawlResult{
		SourceURL: finalURL,
		FetchMs:   fetchTime.Milliseconds(),
		Meta:      md,
	}, nil
}

// Run processes urls and returns one outcome per URL in input order.
// Failures are recorded in the outcome and never stop the batch.
func (b *Batch) Run(ctx context.Context, urls []string) []models.CrawlOutcome {
	results := make([]models.CrawlOutcome, len(urls))
	b.each(ctx, urls, func(i int, o models.CrawlOutcome) {
		results[i] = o
	})
	return results
}

// Stream is like Run but hands each outcome to emit as soon as it is ready.
// emit is never called concurrently.
func (b *Batch) Stream(ctx context.Context, urls []string, emit func(models.CrawlOutcome)) {
	ch := make(chan models.CrawlOutcome)
	go func() {
		b.each(ctx, urls, func(_ int, o models.CrawlOutcome) {
			ch <- o
		})
		close(ch)
	}()
	for o := range ch {
		emit(o)
	}
}

func (b *Batch) each(ctx context.Context, urls []string, done func(int, models.CrawlOutcome)) {
	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, u := range urls {
		g.Go(func() error {
			if u == "" {
				done(i, models.CrawlOutcome{URL: u, Error: "empty url"})
				return nil
			}
			res, err := b.One(ctx, u)
			if err != nil {
				logger.Warn("crawl failed", "url", u, "error", err)
				done(i, models.CrawlOutcome{URL: u, Error: err.Error()})
				return nil
			}
			logger.Debug("crawled", "url", u, "fetchMs", res.FetchMs)
			done(i, models.CrawlOutcome{URL: u, Result: &res})
			return nil
		})
	}
	_ = g.Wait()
}
