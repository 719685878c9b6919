
package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"metafilter/internal/models"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

// Extract reads an HTML document and returns the metadata found in its head.
// Missing tags and blank values leave the corresponding field absent; an
// error is returned only when the input cannot be read or decoded.
func (p *Parser) Extract(r io.Reader, contentType string) (models.Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("read html: %w", err)
	}

	// Decode to UTF-8 if needed
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return models.Metadata{}, fmt.Errorf("decode html: %w", err)
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return models.Metadata{}, fmt.Errorf("parse html: %w", err)
	}
	return fromDocument(doc), nil
}

// ExtractHTML is Extract for an already decoded document.
func (p *Parser) ExtractHTML(html string) (models.Metadata, error) {
	return p.Extract(strings.NewReader(html), "text/html; charset=utf-8")
}

func fromDocument(doc *goquery.Document) models.Metadata {
	desc := content(doc, `meta[property="og:description"]`)
	if desc == nil {
		desc = content(doc, `meta[name="description"]`)
	}

	return models.Metadata{
		URL:         content(doc, `meta[property="og:url"]`),
		SiteName:    content(doc, `meta[property="og:site_name"]`),
		Title:       models.Text(strings.TrimSpace(doc.Find("title").First().Text())),
		Description: desc,
		Keywords:    keywords(doc),
		Author:      content(doc, `meta[name="author"]`),
	}
}

// content returns the trimmed content attribute of the first match.
func content(doc *goquery.Document, selector string) *string {
	return models.Text(strings.TrimSpace(doc.Find(selector).First().AttrOr("content", "")))
}

// keywords splits the keywords meta tag on commas. A missing tag gives nil;
// a tag whose tokens are all blank gives an empty slice.
func keywords(doc *goquery.Document) []string {
	sel := doc.Find(`meta[name="keywords"]`).First()
	if sel.Length() == 0 {
		return nil
	}
	out := []string{}
	for _, k := range strings.Split(sel.AttrOr("content", ""), ",") {
		if trim := strings.TrimSpace(k); trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
