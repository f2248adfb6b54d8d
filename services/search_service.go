package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"mps_intranet_go/db"

	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	snippetRadius      = 40
)

// SearchResult is one matching record
type SearchResult struct {
	Type        string `json:"type"` // lead, deadline or case
	ID          uint   `json:"id"`
	Lawyer      string `json:"lawyer"`
	Title       string `json:"title"`
	ClientName  string `json:"client_name"`
	Snippet     string `json:"snippet"`
	MatchSource string `json:"match_source"`
}

// SearchService does case-insensitive substring search over leads, deadlines and cases
type SearchService struct {
	store  *db.Store
	logger *zap.Logger
}

// NewSearchService creates a new search service instance
func NewSearchService(store *db.Store, logger *zap.Logger) *SearchService {
	return &SearchService{store: store, logger: logger}
}

type searchField struct {
	source string
	value  string
}

// Search returns up to limit records in scope matching term. Cases come first, then
// deadlines, then leads.
func (s *SearchService) Search(ctx context.Context, scope Scope, term string, limit int) ([]SearchResult, error) {
	if limit <= 0 || limit > maxSearchLimit {
		limit = defaultSearchLimit
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return []SearchResult{}, nil
	}

	results := []SearchResult{}

	cases, err := scoped(ctx, s.store.Cases, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to search cases: %w", err)
	}
	sortCases(cases)
	for _, c := range cases {
		if r, ok := match(needle, []searchField{
			{"number", c.Number}, {"client_name", c.ClientName}, {"description", c.Description},
		}); ok {
			r.Type, r.ID, r.Lawyer, r.Title, r.ClientName = "case", c.ID, c.Lawyer, c.Number, c.ClientName
			results = append(results, r)
		}
	}

	deadlines, err := scoped(ctx, s.store.Deadlines, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to search deadlines: %w", err)
	}
	sortDeadlines(deadlines)
	for _, d := range deadlines {
		if r, ok := match(needle, []searchField{
			{"client_name", d.ClientName}, {"description", d.Description}, {"case_number", d.CaseNumber},
		}); ok {
			r.Type, r.ID, r.Lawyer, r.Title, r.ClientName = "deadline", d.ID, d.Lawyer, d.Description, d.ClientName
			results = append(results, r)
		}
	}

	leads, err := scoped(ctx, s.store.Leads, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to search leads: %w", err)
	}
	sortLeads(leads)
	for _, l := range leads {
		if r, ok := match(needle, []searchField{
			{"client_name", l.ClientName}, {"case_type", l.CaseType}, {"description", l.Description},
		}); ok {
			r.Type, r.ID, r.Lawyer, r.Title, r.ClientName = "lead", l.ID, l.Lawyer, l.CaseType, l.ClientName
			results = append(results, r)
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	s.logger.Debug("search", zap.String("term", term), zap.Int("results", len(results)))
	return results, nil
}

// match reports the first field containing needle
func match(needle string, fields []searchField) (SearchResult, bool) {
	for _, f := range fields {
		lower := strings.ToLower(f.value)
		if idx := strings.Index(lower, needle); idx >= 0 && len(lower) == len(f.value) {
			return SearchResult{MatchSource: f.source, Snippet: snippet(f.value, idx, len(needle))}, true
		} else if idx >= 0 {
			return SearchResult{MatchSource: f.source, Snippet: f.value}, true
		}
	}
	return SearchResult{}, false
}

// snippet cuts the text around a match, marking truncation with ellipses
func snippet(text string, at, length int) string {
	start := at - snippetRadius
	end := at + length + snippetRadius
	prefix, suffix := "...", "..."
	if start <= 0 {
		start, prefix = 0, ""
	}
	if end >= len(text) {
		end, suffix = len(text), ""
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return prefix + text[start:end] + suffix
}
