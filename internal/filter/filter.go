// Package filter matches Metadata records against free-form search queries.
package filter

import (
	"slices"
	"strings"

	"metafilter/internal/models"
)

// Filter returns the records that match query.
//
// A query containing commas is split on commas, otherwise a query containing
// spaces is split on spaces; each resulting term is matched on its own and the
// matches are unioned. Results are ordered by first discovery (term order,
// then record order) and a record appears at most once.
//
// An empty query is only short-circuited when records is empty too. Against a
// non-empty list it is matched like any other term, and since every present
// text field contains "" such records are returned.
func Filter(records []*models.Metadata, query string) []*models.Metadata {
	out := []*models.Metadata{}
	if len(records) == 0 && len(query) == 0 {
		return out
	}

	seen := make(map[*models.Metadata]struct{}, len(records))
	for _, term := range Terms(query) {
		q := strings.ToLower(term)
		for _, md := range records {
			if md == nil {
				continue
			}
			if _, ok := seen[md]; ok {
				continue
			}
			if matchTerm(md, q) {
				seen[md] = struct{}{}
				out = append(out, md)
			}
		}
	}
	return out
}

// Terms splits query into the terms Filter matches independently.
// Commas take priority over spaces; empty terms are kept.
func Terms(query string) []string {
	switch {
	case strings.Contains(query, ","):
		return strings.Split(query, ",")
	case strings.Contains(query, " "):
		return strings.Split(query, " ")
	default:
		return []string{query}
	}
}

// matchTerm retries the match with periods or hyphens stripped from q, so
// "example.com" and "my-site" also find "examplecom" and "mysite".
func matchTerm(md *models.Metadata, q string) bool {
	if Match(md, q) {
		return true
	}
	if strings.Contains(q, ".") && Match(md, strings.ReplaceAll(q, ".", "")) {
		return true
	}
	if strings.Contains(q, "-") && Match(md, strings.ReplaceAll(q, "-", "")) {
		return true
	}
	return false
}

// Match reports whether any field of md matches the lower-cased term q.
func Match(md *models.Metadata, q string) bool {
	if md == nil {
		return false
	}
	return matchText(md.URL, q) ||
		matchText(md.SiteName, q) ||
		matchText(md.Title, q) ||
		matchText(md.Description, q) ||
		matchKeywords(md.Keywords, q) ||
		matchText(md.Author, q)
}

func matchText(v *string, q string) bool {
	if v == nil {
		return false
	}
	lv := strings.ToLower(*v)
	return strings.Contains(lv, q) || strings.Contains(strings.ReplaceAll(lv, ".", ""), q)
}

// matchKeywords checks exact membership, then whether any keyword occurs
// inside q. Keywords are compared as given, without case folding.
func matchKeywords(ks []string, q string) bool {
	if slices.Contains(ks, q) {
		return true
	}
	for _, k := range ks {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}
