// ABOUTME: Search and focus resolution over an account's persons
// ABOUTME: Ranks prefix matches ahead of substring matches, with a fuzzy fallback for suggestions
package orgchart

import (
	"sort"
	"strings"

	"github.com/harperreed/orgmap/models"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MatchKind names the tier a search result came from.
type MatchKind string

const (
	MatchNamePrefix    MatchKind = "name_prefix"
	MatchEmailPrefix   MatchKind = "email_prefix"
	MatchNameContains  MatchKind = "name_contains"
	MatchEmailContains MatchKind = "email_contains"
	MatchEmailExact    MatchKind = "email_exact"
	MatchFuzzy         MatchKind = "fuzzy"
)

// DefaultSuggestLimit applies when no limit is given.
const DefaultSuggestLimit = 10

// Match is one ranked search result.
type Match struct {
	Person models.Person `json:"person"`
	Kind   MatchKind     `json:"kind"`
}

type tier struct {
	kind  MatchKind
	match func(name, email, q string) bool
}

var tiers = []tier{
	{MatchNamePrefix, func(name, _, q string) bool { return strings.HasPrefix(name, q) }},
	{MatchEmailPrefix, func(_, email, q string) bool { return strings.HasPrefix(email, q) }},
	{MatchNameContains, func(name, _, q string) bool { return strings.Contains(name, q) }},
	{MatchEmailContains, func(_, email, q string) bool { return strings.Contains(email, q) }},
	{MatchEmailExact, func(_, email, q string) bool { return email == q }},
}

// Resolve picks the person a query focuses on. The first tier with any match
// wins and ties go to storage order.
func Resolve(persons []models.Person, query string) (*models.Person, bool) {
	q := normalizeQuery(query)
	if q == "" {
		return nil, false
	}
	for _, t := range tiers {
		for i := range persons {
			name, email := searchFields(&persons[i])
			if t.match(name, email, q) {
				p := persons[i].Clone()
				return &p, true
			}
		}
	}
	return nil, false
}

// Suggest lists up to limit candidates: every tier in rank order, then fuzzy
// matches on name and email. Each person appears once.
func Suggest(persons []models.Person, query string, limit int) []Match {
	q := normalizeQuery(query)
	matches := []Match{}
	if q == "" {
		return matches
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	seen := map[string]bool{}
	add := func(p *models.Person, kind MatchKind) bool {
		if seen[p.Key()] {
			return len(matches) < limit
		}
		seen[p.Key()] = true
		matches = append(matches, Match{Person: p.Clone(), Kind: kind})
		return len(matches) < limit
	}

	for _, t := range tiers {
		for i := range persons {
			name, email := searchFields(&persons[i])
			if t.match(name, email, q) && !add(&persons[i], t.kind) {
				return matches
			}
		}
	}

	names := make([]string, len(persons))
	emails := make([]string, len(persons))
	for i := range persons {
		names[i], emails[i] = searchFields(&persons[i])
	}
	for _, targets := range [][]string{names, emails} {
		ranks := fuzzy.RankFindFold(q, targets)
		sort.Stable(ranks)
		for _, rank := range ranks {
			if !add(&persons[rank.OriginalIndex], MatchFuzzy) {
				return matches
			}
		}
	}
	return matches
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func searchFields(p *models.Person) (string, string) {
	return strings.ToLower(p.Name), models.EmailKey(p.Email)
}
