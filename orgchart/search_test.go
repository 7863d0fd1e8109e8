// ABOUTME: Tests for focus resolution and search suggestions
// ABOUTME: Verifies tier ordering, storage-order ties and the fuzzy fallback
package orgchart

import (
	"testing"

	"github.com/harperreed/orgmap/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(name, email string) models.Person {
	return models.Person{Name: name, Email: email}
}

func TestResolvePrefersPrefixOverSubstring(t *testing.T) {
	persons := []models.Person{
		named("Balice Jones", "bj@x.io"),
		named("Alice Smith", "asmith@x.io"),
	}
	p, ok := Resolve(persons, "ali")
	require.True(t, ok)
	assert.Equal(t, "Alice Smith", p.Name)
}

func TestResolveTiers(t *testing.T) {
	persons := []models.Person{
		named("Zed", "carol.z@x.io"),
		named("Marcy", "m@x.io"),
		named("Carol King", "ck@x.io"),
	}

	tests := []struct {
		query string
		want  string
	}{
		{"carol", "Carol King"},      // name prefix beats email prefix earlier in order
		{"CAROL.z", "Zed"},           // email prefix
		{"arc", "Marcy"},             // name substring
		{"ol.z@", "Zed"},             // email substring
		{"  ck@x.io ", "Carol King"}, // trimmed, email prefix
	}
	for _, tt := range tests {
		p, ok := Resolve(persons, tt.query)
		require.True(t, ok, tt.query)
		assert.Equal(t, tt.want, p.Name, tt.query)
	}
}

func TestResolveTiesGoToStorageOrder(t *testing.T) {
	persons := []models.Person{
		named("Sam Two", "two@x.io"),
		named("Sam One", "one@x.io"),
	}
	p, ok := Resolve(persons, "sam")
	require.True(t, ok)
	assert.Equal(t, "two@x.io", p.Email)
}

func TestResolveNoMatch(t *testing.T) {
	_, ok := Resolve([]models.Person{named("Alice", "a@x.io")}, "zzz")
	assert.False(t, ok)
	_, ok = Resolve([]models.Person{named("Alice", "a@x.io")}, "   ")
	assert.False(t, ok)
}

func TestSuggestRanksAndDeduplicates(t *testing.T) {
	persons := []models.Person{
		named("Balice Jones", "bj@x.io"),
		named("Alice Smith", "alice@x.io"),
		named("Aldo Lin", "aldo@x.io"),
	}
	matches := Suggest(persons, "ali", 0)

	require.GreaterOrEqual(t, len(matches), 2)
	assert.Equal(t, "Alice Smith", matches[0].Person.Name)
	assert.Equal(t, MatchNamePrefix, matches[0].Kind)
	assert.Equal(t, "Balice Jones", matches[1].Person.Name)
	assert.Equal(t, MatchNameContains, matches[1].Kind)

	seen := map[string]bool{}
	for _, m := range matches {
		assert.False(t, seen[m.Person.Email], "duplicate %s", m.Person.Email)
		seen[m.Person.Email] = true
	}
}

func TestSuggestFuzzyFallback(t *testing.T) {
	persons := []models.Person{
		named("Jonathan Price", "jp@x.io"),
		named("Mary Poppins", "mp@x.io"),
	}
	matches := Suggest(persons, "jthn", 5)

	require.Len(t, matches, 1)
	assert.Equal(t, "Jonathan Price", matches[0].Person.Name)
	assert.Equal(t, MatchFuzzy, matches[0].Kind)
}

func TestSuggestLimit(t *testing.T) {
	persons := []models.Person{
		named("Ann A", "a1@x.io"),
		named("Ann B", "a2@x.io"),
		named("Ann C", "a3@x.io"),
	}
	assert.Len(t, Suggest(persons, "ann", 2), 2)
	assert.Empty(t, Suggest(persons, "", 2))
}
