// ABOUTME: MCP tool handler test suite
// ABOUTME: Exercises every org chart tool against a seeded SQLite store
package handlers

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harperreed/orgmap/db"
	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

func setupTestService(t *testing.T) *directory.Service {
	t.Helper()
	store, err := db.OpenSQLiteStore(filepath.Join(t.TempDir(), "orgmap.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := directory.NewService(store, log)

	ctx := context.Background()
	if err := svc.SaveAccount(ctx, &models.Account{ID: "acct-1", Name: "Acme"}); err != nil {
		t.Fatalf("Failed to save account: %v", err)
	}
	for _, p := range []models.Person{
		{Email: "ceo@x.io", Name: "Alice Chief", AccountID: "acct-1", Sentiment: models.SentimentHigh},
		{Email: "mgr@x.io", Name: "Bob Manager", AccountID: "acct-1", ReportingTo: []string{"ceo@x.io"}},
		{Email: "ic@x.io", Name: "Carol Engineer", AccountID: "acct-1", ReportingTo: []string{"mgr@x.io"}},
	} {
		if _, err := svc.CreatePerson(ctx, p); err != nil {
			t.Fatalf("Failed to create %s: %v", p.Email, err)
		}
	}
	return svc
}

func TestPersonTools(t *testing.T) {
	svc := setupTestService(t)
	handlers := NewPersonHandlers(svc)
	ctx := context.Background()

	t.Run("ListPersons", func(t *testing.T) {
		_, output, err := handlers.ListPersons(ctx, &mcp.CallToolRequest{}, ListPersonsInput{AccountID: "acct-1"})
		if err != nil {
			t.Fatalf("ListPersons failed: %v", err)
		}
		if output.Count != 3 {
			t.Errorf("Expected 3 persons, got %d", output.Count)
		}
		if output.Persons[1].Manager != "ceo@x.io" {
			t.Errorf("Expected mgr to report to ceo, got %q", output.Persons[1].Manager)
		}
	})

	t.Run("ListPersonsRequiresAccount", func(t *testing.T) {
		if _, _, err := handlers.ListPersons(ctx, &mcp.CallToolRequest{}, ListPersonsInput{}); err == nil {
			t.Error("Expected error without account_id")
		}
	})

	t.Run("FindPersonPrefersPrefix", func(t *testing.T) {
		_, output, err := handlers.FindPerson(ctx, &mcp.CallToolRequest{}, FindPersonInput{AccountID: "acct-1", Query: "car"})
		if err != nil {
			t.Fatalf("FindPerson failed: %v", err)
		}
		if output.Match == nil || output.Match.Email != "ic@x.io" {
			t.Fatalf("Expected ic@x.io, got %+v", output.Match)
		}
		if output.MatchedBy != "name_prefix" {
			t.Errorf("Expected name_prefix, got %s", output.MatchedBy)
		}
	})

	t.Run("GetOrgTree", func(t *testing.T) {
		_, output, err := handlers.GetOrgTree(ctx, &mcp.CallToolRequest{}, GetOrgTreeInput{AccountID: "acct-1", Focus: "mgr@x.io"})
		if err != nil {
			t.Fatalf("GetOrgTree failed: %v", err)
		}
		if len(output.Ancestors) != 1 || output.Ancestors[0].Email != "ceo@x.io" {
			t.Errorf("Expected ceo as only ancestor, got %+v", output.Ancestors)
		}
		if output.Size != 2 || len(output.Tree) != 2 {
			t.Errorf("Expected subtree of 2, got size %d rows %d", output.Size, len(output.Tree))
		}
		if output.Tree[1].Depth != 1 || output.Tree[1].Manager != "mgr@x.io" {
			t.Errorf("Unexpected tree row %+v", output.Tree[1])
		}
	})
}

func TestReparentTools(t *testing.T) {
	svc := setupTestService(t)
	handlers := NewReparentHandlers(svc)
	ctx := context.Background()

	t.Run("ValidateRejectsCycle", func(t *testing.T) {
		_, output, err := handlers.ValidateReparent(ctx, &mcp.CallToolRequest{}, ReparentInput{
			AccountID: "acct-1", Email: "ceo@x.io", NewManager: "ic@x.io",
		})
		if err != nil {
			t.Fatalf("ValidateReparent failed: %v", err)
		}
		if output.OK || output.Error != "Circular dependency detected." {
			t.Errorf("Expected cycle rejection, got %+v", output)
		}
	})

	t.Run("ValidateDoesNotWrite", func(t *testing.T) {
		_, output, err := handlers.ValidateReparent(ctx, &mcp.CallToolRequest{}, ReparentInput{
			AccountID: "acct-1", Email: "ic@x.io", NewManager: "ceo@x.io",
		})
		if err != nil || !output.OK {
			t.Fatalf("Expected valid move, got %+v %v", output, err)
		}
		p, _ := svc.GetPerson(ctx, "acct-1", "ic@x.io")
		if p.Manager() != "mgr@x.io" {
			t.Errorf("Dry run changed manager to %s", p.Manager())
		}
	})

	t.Run("ReparentPerson", func(t *testing.T) {
		_, output, err := handlers.ReparentPerson(ctx, &mcp.CallToolRequest{}, ReparentInput{
			AccountID: "acct-1", Email: "ic@x.io", NewManager: "ceo@x.io",
		})
		if err != nil {
			t.Fatalf("ReparentPerson failed: %v", err)
		}
		if output.OldManager != "mgr@x.io" || len(output.Updated) != 3 {
			t.Errorf("Unexpected result %+v", output)
		}
		ceo, _ := svc.GetPerson(ctx, "acct-1", "ceo@x.io")
		if !ceo.HasReportee("ic@x.io") {
			t.Error("Expected ceo to list ic as reportee")
		}
	})

	t.Run("ReparentSelfFails", func(t *testing.T) {
		_, _, err := handlers.ReparentPerson(ctx, &mcp.CallToolRequest{}, ReparentInput{
			AccountID: "acct-1", Email: "ic@x.io", NewManager: "ic@x.io",
		})
		if err == nil || !strings.Contains(err.Error(), "Cannot report to self.") {
			t.Errorf("Expected self-report error, got %v", err)
		}
	})
}

func TestQueryOrg(t *testing.T) {
	svc := setupTestService(t)
	handlers := NewQueryHandlers(svc)
	ctx := context.Background()

	t.Run("PersonsWithFilter", func(t *testing.T) {
		_, output, err := handlers.QueryOrg(ctx, &mcp.CallToolRequest{}, QueryOrgInput{
			EntityType: "person",
			AccountID:  "acct-1",
			Filters:    map[string]string{"sentiment": "high"},
		})
		if err != nil {
			t.Fatalf("QueryOrg failed: %v", err)
		}
		if output.Count != 1 {
			t.Errorf("Expected 1 high-sentiment person, got %d", output.Count)
		}
	})

	t.Run("PersonsByManager", func(t *testing.T) {
		_, output, err := handlers.QueryOrg(ctx, &mcp.CallToolRequest{}, QueryOrgInput{
			EntityType: "person",
			AccountID:  "acct-1",
			Query:      "x.io",
			Filters:    map[string]string{"manager": "MGR@x.io"},
		})
		if err != nil {
			t.Fatalf("QueryOrg failed: %v", err)
		}
		if output.Count != 1 || output.Results[0].(PersonSummary).Email != "ic@x.io" {
			t.Errorf("Expected only ic, got %+v", output.Results)
		}
	})

	t.Run("Accounts", func(t *testing.T) {
		_, output, err := handlers.QueryOrg(ctx, &mcp.CallToolRequest{}, QueryOrgInput{EntityType: "account", Query: "acm"})
		if err != nil {
			t.Fatalf("QueryOrg failed: %v", err)
		}
		if output.Count != 1 {
			t.Errorf("Expected 1 account, got %d", output.Count)
		}
	})

	t.Run("Tree", func(t *testing.T) {
		_, output, err := handlers.QueryOrg(ctx, &mcp.CallToolRequest{}, QueryOrgInput{EntityType: "tree", AccountID: "acct-1"})
		if err != nil {
			t.Fatalf("QueryOrg failed: %v", err)
		}
		if output.Count != 3 {
			t.Errorf("Expected full tree of 3, got %d", output.Count)
		}
	})

	t.Run("Issues", func(t *testing.T) {
		_, output, err := handlers.QueryOrg(ctx, &mcp.CallToolRequest{}, QueryOrgInput{EntityType: "issues", AccountID: "acct-1"})
		if err != nil {
			t.Fatalf("QueryOrg failed: %v", err)
		}
		if output.Count != 0 {
			t.Errorf("Expected no issues, got %d", output.Count)
		}
	})

	t.Run("InvalidType", func(t *testing.T) {
		if _, _, err := handlers.QueryOrg(ctx, &mcp.CallToolRequest{}, QueryOrgInput{EntityType: "deal"}); err == nil {
			t.Error("Expected error for invalid entity_type")
		}
	})
}

func TestAuditOrgChartFix(t *testing.T) {
	svc := setupTestService(t)
	handlers := NewQueryHandlers(svc)
	ctx := context.Background()

	ic, err := svc.GetPerson(ctx, "acct-1", "ic@x.io")
	if err != nil {
		t.Fatalf("GetPerson failed: %v", err)
	}
	ic.ReportingTo = []string{"ceo@x.io"}
	if err := svc.Store().SavePersons(ctx, "acct-1", []models.Person{*ic}); err != nil {
		t.Fatalf("SavePersons failed: %v", err)
	}

	_, output, err := handlers.AuditOrgChart(ctx, &mcp.CallToolRequest{}, AuditOrgChartInput{AccountID: "acct-1", Fix: true})
	if err != nil {
		t.Fatalf("AuditOrgChart failed: %v", err)
	}
	if len(output.Issues) == 0 {
		t.Error("Expected issues before repair")
	}
	if len(output.Repaired) != 2 {
		t.Errorf("Expected 2 repaired records, got %v", output.Repaired)
	}

	issues, err := svc.Audit(ctx, "acct-1")
	if err != nil || len(issues) != 0 {
		t.Errorf("Expected clean chart after repair, got %v %v", issues, err)
	}
}

func TestOrgChartGraph(t *testing.T) {
	svc := setupTestService(t)
	handlers := NewVizHandlers(svc)
	ctx := context.Background()

	_, output, err := handlers.OrgChartGraph(ctx, &mcp.CallToolRequest{}, OrgChartGraphInput{AccountID: "acct-1"})
	if err != nil {
		t.Fatalf("OrgChartGraph failed: %v", err)
	}
	if output.NodeCount != 3 || output.EdgeCount != 2 {
		t.Errorf("Expected 3 nodes and 2 edges, got %d and %d", output.NodeCount, output.EdgeCount)
	}
	if !strings.Contains(output.DOTSource, "Bob Manager") {
		t.Error("Expected DOT source to contain Bob Manager")
	}

	_, output, err = handlers.OrgChartGraph(ctx, &mcp.CallToolRequest{}, OrgChartGraphInput{AccountID: "acct-1", Focus: "ic@x.io"})
	if err != nil {
		t.Fatalf("OrgChartGraph failed: %v", err)
	}
	if output.Focus != "ic@x.io" || output.NodeCount != 3 {
		t.Errorf("Unexpected focused graph %+v", output)
	}
}

func TestResourcesAndPrompts(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	resources := NewResourceHandlers(svc)
	res, err := resources.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "orgmap://accounts/acct-1/persons"}})
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	if !strings.Contains(res.Contents[0].Text, "carol") && !strings.Contains(res.Contents[0].Text, "Carol") {
		t.Error("Expected persons resource to include Carol")
	}
	if _, err := resources.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "crm://contacts"}}); err == nil {
		t.Error("Expected error for foreign scheme")
	}

	prompts := NewPromptHandlers(svc)
	prompt, err := prompts.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name:      "stakeholder-map",
		Arguments: map[string]string{"account_id": "acct-1", "focus": "bob"},
	}})
	if err != nil {
		t.Fatalf("GetPrompt failed: %v", err)
	}
	text := prompt.Messages[0].Content.(*mcp.TextContent).Text
	if !strings.Contains(text, "Alice Chief") || !strings.Contains(text, "Carol Engineer") {
		t.Errorf("Prompt missing chart context: %s", text)
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	svc := setupTestService(t)
	server := NewServer(svc, "test")
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	if _, err := server.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"list_persons", "find_person", "get_org_tree", "validate_reparent",
		"reparent_person", "org_chart_graph", "audit_org_chart", "query_org"} {
		if !names[want] {
			t.Errorf("Tool %s not registered", want)
		}
	}
}
