package viz

import (
	"strings"
	"testing"
	"time"

	"github.com/harperreed/orgmap/models"
	"github.com/harperreed/orgmap/orgchart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chart() []models.Person {
	return []models.Person{
		{Email: "ceo@x.io", Name: "Alice Chief", Designation: "CEO", Sentiment: models.SentimentHigh,
			ReportingTo: []string{}, Reportees: []string{"mgr@x.io"}},
		{Email: "mgr@x.io", Name: "Bob Manager", Designation: "VP", ReportingTo: []string{"ceo@x.io"}, Reportees: []string{"ic@x.io"}},
		{Email: "ic@x.io", Name: "Carol Engineer", ReportingTo: []string{"mgr@x.io"}, Reportees: []string{},
			LogHistory: []models.LogEntry{{Summary: "call", Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}}},
	}
}

func TestGenerateOrgChart(t *testing.T) {
	tree := orgchart.BuildScopedTree(chart(), "mgr@x.io")

	dot, err := NewGraphGenerator().GenerateOrgChart(tree)
	require.NoError(t, err)
	assert.True(t, strings.Contains(dot, "digraph"))
	for _, name := range []string{"Alice Chief", "Bob Manager", "Carol Engineer"} {
		assert.Contains(t, dot, name)
	}
	assert.Contains(t, dot, "dashed")
}

func TestGenerateOrgChartRequiresFocus(t *testing.T) {
	_, err := NewGraphGenerator().GenerateOrgChart(orgchart.ScopedTree{})
	assert.Error(t, err)
}

func TestGenerateAccountGraphSkipsDanglingManagers(t *testing.T) {
	persons := chart()
	persons = append(persons, models.Person{Email: "orphan@x.io", Name: "Orphan", ReportingTo: []string{"gone@x.io"}})

	dot, err := NewGraphGenerator().GenerateAccountGraph("Acme", persons)
	require.NoError(t, err)
	assert.Contains(t, dot, "Orphan")
	assert.NotContains(t, dot, "gone@x.io")
}

func TestChartStats(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	stats := GenerateChartStats("acct-1", chart(), now)

	assert.Equal(t, 3, stats.TotalPersons)
	assert.Equal(t, 1, stats.Roots)
	assert.Equal(t, 2, stats.MaxDepth)
	assert.Equal(t, 1, stats.BySentiment[models.SentimentHigh])
	assert.Equal(t, 2, stats.BySentiment[models.SentimentUnknown])
	assert.Empty(t, stats.Issues)
	require.Len(t, stats.Stale, 2)
	assert.Equal(t, -1, stats.Stale[0].DaysSince)

	out := RenderChartStats(stats)
	assert.Contains(t, out, "ORG CHART: acct-1")
	assert.Contains(t, out, "3 people")
	assert.Contains(t, out, "2 people - nothing logged")
}
