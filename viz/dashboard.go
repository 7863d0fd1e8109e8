// ABOUTME: Terminal summary of an account's org chart
// ABOUTME: Counts sentiment and awareness, chart depth, consistency issues and stale stakeholders
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/orgmap/models"
	"github.com/harperreed/orgmap/orgchart"
)

// StaleAfter is how long a stakeholder can go without a logged conversation.
const StaleAfter = 30 * 24 * time.Hour

type ChartStats struct {
	AccountID string

	TotalPersons int
	Roots        int
	MaxDepth     int

	BySentiment map[string]int
	ByAwareness map[string]int

	Issues []orgchart.Issue
	Stale  []StalePerson
}

type StalePerson struct {
	Email     string
	Name      string
	DaysSince int // -1 when nothing was ever logged
}

func GenerateChartStats(accountID string, persons []models.Person, now time.Time) *ChartStats {
	stats := &ChartStats{
		AccountID:    accountID,
		TotalPersons: len(persons),
		BySentiment:  make(map[string]int),
		ByAwareness:  make(map[string]int),
		Issues:       orgchart.Audit(persons),
	}

	roster := orgchart.NewRoster(persons)
	for i := range persons {
		p := &persons[i]
		stats.BySentiment[orDefault(p.Sentiment, models.SentimentUnknown)]++
		stats.ByAwareness[orDefault(p.Awareness, models.AwarenessUnknown)]++

		if p.IsRoot() {
			stats.Roots++
		}
		if depth := len(roster.Ancestors(p.Email)); depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}

		last := lastLogged(p)
		if last.IsZero() {
			stats.Stale = append(stats.Stale, StalePerson{Email: p.Email, Name: p.Name, DaysSince: -1})
			continue
		}
		if since := now.Sub(last); since > StaleAfter {
			stats.Stale = append(stats.Stale, StalePerson{Email: p.Email, Name: p.Name, DaysSince: int(since.Hours() / 24)})
		}
	}
	return stats
}

func lastLogged(p *models.Person) time.Time {
	var last time.Time
	for _, e := range p.LogHistory {
		if e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}
	return last
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func RenderChartStats(stats *ChartStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString(fmt.Sprintf("  ORG CHART: %s\n", stats.AccountID))
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  %d people  %d root(s)  depth %d\n\n", stats.TotalPersons, stats.Roots, stats.MaxDepth))

	out.WriteString("SENTIMENT\n")
	renderBars(&out, []string{
		models.SentimentHigh, models.SentimentMedium, models.SentimentLow, models.SentimentUnknown,
	}, stats.BySentiment)
	out.WriteString("\n")

	out.WriteString("AWARENESS\n")
	renderBars(&out, []string{
		models.AwarenessGoAhead, models.AwarenessLow, models.AwarenessEmailOnly, models.AwarenessHold, models.AwarenessUnknown,
	}, stats.ByAwareness)
	out.WriteString("\n")

	if len(stats.Issues) > 0 || len(stats.Stale) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		if len(stats.Issues) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d consistency issue(s), run check --fix\n", len(stats.Issues)))
		}
		if len(stats.Stale) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d people - nothing logged in 30+ days\n", len(stats.Stale)))
		}
	}

	return out.String()
}

func renderBars(out *strings.Builder, order []string, counts map[string]int) {
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, key := range order {
		count, ok := counts[key]
		if !ok {
			continue
		}
		barLength := (count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-11s %s  %2d\n", key, bar, count))
	}
}
