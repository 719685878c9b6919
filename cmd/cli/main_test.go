package main_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	main "metafilter/cmd/cli"
	"metafilter/internal/models"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := main.NewMain().Run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func decodeLines(t *testing.T, out string) []models.Metadata {
	t.Helper()
	var records []models.Metadata
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var md models.Metadata
		require.NoError(t, json.Unmarshal(sc.Bytes(), &md))
		records = append(records, md)
	}
	return records
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := main.NewMain().Run(context.Background(), []string{"--help"}, nil, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "metafilter")
	assert.Contains(t, stdout.String(), "search")
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	_, err := run(t, "")

	assert.Error(t, err)
}

func TestMain_Run_Extract(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "page.html", `<html><head><title>From File</title></head></html>`)

	out, err := run(t, "", "extract", path)
	require.NoError(t, err)
	records := decodeLines(t, out)
	require.Len(t, records, 1)
	assert.Equal(t, "From File", models.Value(records[0].Title))

	out, err = run(t, `<html><head><meta name="author" content="Stdin"></head></html>`, "extract")
	require.NoError(t, err)
	records = decodeLines(t, out)
	require.Len(t, records, 1)
	assert.Equal(t, "Stdin", models.Value(records[0].Author))
}

func TestMain_Run_Search(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "records.ndjson", `{"siteName":"Example.com","keywords":["news","ai"]}
{"title":"Sports Weekly"}
{"title":"Cooking"}
`)

	t.Run("matches a single term", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "", "search", "--records", path, "example")

		require.NoError(t, err)
		records := decodeLines(t, out)
		require.Len(t, records, 1)
		assert.Equal(t, "Example.com", models.Value(records[0].SiteName))
	})

	t.Run("joins query arguments into a multi-term query", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "", "search", "-r", path, "sports", "ai-powered")

		require.NoError(t, err)
		records := decodeLines(t, out)
		require.Len(t, records, 2)
		assert.Equal(t, "Sports Weekly", models.Value(records[0].Title))
		assert.Equal(t, "Example.com", models.Value(records[1].SiteName))
	})

	t.Run("prints nothing when no record matches", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "", "search", "-r", path, "weather")

		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestMain_Run_Crawl(t *testing.T) {
	t.Parallel()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Crawled</title></head></html>`))
	}))
	defer site.Close()

	input := writeFile(t, "urls.csv", "url\n"+site.URL+"\n")
	output := filepath.Join(t.TempDir(), "out.ndjson")

	_, err := run(t, "", "crawl", "--input", input, "--output", output, "-c", "2")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var o models.CrawlOutcome
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &o))
	require.NotNil(t, o.Result)
	assert.Equal(t, "Crawled", models.Value(o.Result.Meta.Title))

	out, err := run(t, "", "search", "-r", output, "crawled")
	require.NoError(t, err)
	assert.Len(t, decodeLines(t, out), 1)
}
