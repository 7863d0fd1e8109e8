// ABOUTME: Tests for stakeholder data models
// ABOUTME: Validates email keys, normalization, cloning and enum helpers
package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEmailKey(t *testing.T) {
	if got := EmailKey("  Alice@Example.COM "); got != "alice@example.com" {
		t.Errorf("expected lower-cased trimmed key, got %q", got)
	}
	if !SameEmail("BOB@x.io", "bob@X.io") {
		t.Error("expected emails to compare case-insensitively")
	}
}

func TestPersonManager(t *testing.T) {
	p := Person{Email: "ic@x.io"}
	if !p.IsRoot() || p.Manager() != "" {
		t.Errorf("expected root with no manager, got %q", p.Manager())
	}

	p.ReportingTo = []string{"mgr@x.io"}
	if p.IsRoot() || p.Manager() != "mgr@x.io" {
		t.Errorf("expected manager mgr@x.io, got %q", p.Manager())
	}
}

func TestPersonReadersWorkOnMapValues(t *testing.T) {
	byEmail := map[string]Person{
		"ceo@x.io": {Email: "CEO@x.io", Reportees: []string{"ic@x.io"}},
		"ic@x.io":  {Email: "ic@x.io", ReportingTo: []string{"ceo@x.io"}},
	}
	if !byEmail["ceo@x.io"].IsRoot() || byEmail["ic@x.io"].IsRoot() {
		t.Error("expected only ceo@x.io to be a root")
	}
	if byEmail["ic@x.io"].Manager() != "ceo@x.io" || byEmail["ceo@x.io"].Key() != "ceo@x.io" {
		t.Error("unexpected manager or key")
	}
	if !byEmail["ceo@x.io"].HasReportee("IC@x.io") {
		t.Error("expected ic@x.io among the reportees")
	}
}

func TestPersonHasReportee(t *testing.T) {
	p := Person{Email: "mgr@x.io", Reportees: []string{"IC@x.io"}}
	if !p.HasReportee("ic@X.io") {
		t.Error("expected case-insensitive reportee match")
	}
	if p.HasReportee("other@x.io") {
		t.Error("did not expect other@x.io")
	}
}

func TestPersonCloneIsDeep(t *testing.T) {
	orig := Person{
		Email:       "a@x.io",
		ReportingTo: []string{"b@x.io"},
		Reportees:   []string{"c@x.io"},
		LogHistory:  []LogEntry{{Summary: "intro"}},
	}
	cp := orig.Clone()
	cp.ReportingTo[0] = "z@x.io"
	cp.Reportees = append(cp.Reportees, "d@x.io")
	cp.LogHistory[0].Summary = "changed"

	if orig.ReportingTo[0] != "b@x.io" {
		t.Errorf("clone shares reportingTo backing array")
	}
	if len(orig.Reportees) != 1 {
		t.Errorf("clone shares reportees")
	}
	if orig.LogHistory[0].Summary != "intro" {
		t.Errorf("clone shares log history")
	}
}

func TestPersonNormalize(t *testing.T) {
	p := Person{Email: " a@x.io "}
	p.Normalize()

	if p.Email != "a@x.io" {
		t.Errorf("expected trimmed email, got %q", p.Email)
	}
	if p.Sentiment != SentimentUnknown || p.Awareness != AwarenessUnknown || p.Type != RoleUnknown {
		t.Errorf("expected unknown defaults, got %q %q %q", p.Sentiment, p.Awareness, p.Type)
	}
	if p.ReportingTo == nil || p.Reportees == nil {
		t.Error("expected non-nil relation lists")
	}
}

func TestPersonJSONFieldNames(t *testing.T) {
	p := Person{Email: "a@x.io", AccountID: "acct", BusinessUnit: []string{"Cloud"}}
	p.Normalize()

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"reportingTo":[]`, `"reportees":[]`, `"accountId":"acct"`, `"businessUnit":["Cloud"]`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("expected %s in %s", field, data)
		}
	}
}

func TestEnumHelpers(t *testing.T) {
	if !ValidSentiment("Medium") || ValidSentiment("medium") {
		t.Error("sentiment values are case-sensitive")
	}
	if !ValidAwareness("Email only") || ValidAwareness("Email Only") {
		t.Error("awareness must match exactly")
	}
	if !ValidRoleType(RoleEconomicBuyer) || ValidRoleType("ceo") {
		t.Error("unexpected role type result")
	}
	if len(RoleTypes()) != 9 {
		t.Errorf("expected 9 role types, got %d", len(RoleTypes()))
	}
}

func TestLocationLabel(t *testing.T) {
	if got := (Location{City: "Pune", Country: "India"}).Label(); got != "Pune, India" {
		t.Errorf("unexpected label %q", got)
	}
	if got := (Location{City: "Remote"}).Label(); got != "Remote" {
		t.Errorf("unexpected label %q", got)
	}
}
