// ABOUTME: Universal query and audit tool handlers
// ABOUTME: query_org filters persons, accounts, trees and issues; audit_org_chart checks and repairs
package handlers

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/models"
	"github.com/harperreed/orgmap/orgchart"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type QueryHandlers struct {
	svc *directory.Service
}

func NewQueryHandlers(svc *directory.Service) *QueryHandlers {
	return &QueryHandlers{svc: svc}
}

type QueryOrgInput struct {
	EntityType string            `json:"entity_type" jsonschema:"Type of entity to query (person, account, tree, issues)"`
	AccountID  string            `json:"account_id,omitempty" jsonschema:"Account to query (required for person, tree, issues)"`
	Query      string            `json:"query,omitempty" jsonschema:"Search query (name/email for persons, name for accounts, focus for trees)"`
	Filters    map[string]string `json:"filters,omitempty" jsonschema:"Person filters: sentiment, awareness, type, business_unit, manager"`
	Limit      int               `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
}

type QueryOrgOutput struct {
	EntityType string        `json:"entity_type"`
	Results    []interface{} `json:"results"`
	Count      int           `json:"count"`
}

func (h *QueryHandlers) QueryOrg(ctx context.Context, req *mcp.CallToolRequest, input QueryOrgInput) (*mcp.CallToolResult, QueryOrgOutput, error) {
	if input.Limit == 0 {
		input.Limit = 10
	}

	switch input.EntityType {
	case "person":
		return h.queryPersons(ctx, input)
	case "account":
		return h.queryAccounts(ctx, input)
	case "tree":
		return h.queryTree(ctx, input)
	case "issues":
		return h.queryIssues(ctx, input)
	default:
		return nil, QueryOrgOutput{}, fmt.Errorf("invalid entity_type: %s (valid: person, account, tree, issues)", input.EntityType)
	}
}

func output(entityType string, results []interface{}) QueryOrgOutput {
	if results == nil {
		results = []interface{}{}
	}
	return QueryOrgOutput{EntityType: entityType, Results: results, Count: len(results)}
}

func (h *QueryHandlers) queryPersons(ctx context.Context, input QueryOrgInput) (*mcp.CallToolResult, QueryOrgOutput, error) {
	if input.AccountID == "" {
		return nil, QueryOrgOutput{}, fmt.Errorf("account_id is required for person queries")
	}

	var candidates []models.Person
	if input.Query == "" {
		persons, err := h.svc.ListPersons(ctx, input.AccountID)
		if err != nil {
			return nil, QueryOrgOutput{}, fmt.Errorf("failed to list persons: %w", err)
		}
		candidates = persons
	} else {
		limit := input.Limit
		if len(input.Filters) > 0 {
			limit = math.MaxInt32
		}
		res, err := h.svc.Search(ctx, input.AccountID, input.Query, limit)
		if err != nil {
			return nil, QueryOrgOutput{}, fmt.Errorf("failed to search persons: %w", err)
		}
		for _, m := range res.Suggestions {
			candidates = append(candidates, m.Person)
		}
	}

	var results []interface{}
	for i := range candidates {
		if len(results) >= input.Limit {
			break
		}
		if matchesFilters(&candidates[i], input.Filters) {
			results = append(results, personToSummary(&candidates[i]))
		}
	}
	return &mcp.CallToolResult{}, output("person", results), nil
}

func matchesFilters(p *models.Person, filters map[string]string) bool {
	for key, want := range filters {
		switch key {
		case "sentiment":
			if !strings.EqualFold(p.Sentiment, want) {
				return false
			}
		case "awareness":
			if !strings.EqualFold(p.Awareness, want) {
				return false
			}
		case "type":
			if !strings.EqualFold(p.Type, want) {
				return false
			}
		case "manager":
			if !models.SameEmail(p.Manager(), want) {
				return false
			}
		case "business_unit":
			found := false
			for _, bu := range p.BusinessUnit {
				if strings.EqualFold(bu, want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func (h *QueryHandlers) queryAccounts(ctx context.Context, input QueryOrgInput) (*mcp.CallToolResult, QueryOrgOutput, error) {
	accounts, err := h.svc.ListAccounts(ctx)
	if err != nil {
		return nil, QueryOrgOutput{}, fmt.Errorf("failed to list accounts: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(input.Query))
	var results []interface{}
	for _, a := range accounts {
		if len(results) >= input.Limit {
			break
		}
		if input.AccountID != "" && a.ID != input.AccountID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.Name), q) {
			continue
		}
		results = append(results, a)
	}
	return &mcp.CallToolResult{}, output("account", results), nil
}

func (h *QueryHandlers) queryTree(ctx context.Context, input QueryOrgInput) (*mcp.CallToolResult, QueryOrgOutput, error) {
	if input.AccountID == "" {
		return nil, QueryOrgOutput{}, fmt.Errorf("account_id is required for tree queries")
	}
	tree, err := h.svc.ScopedTree(ctx, input.AccountID, input.Query)
	if err != nil {
		return nil, QueryOrgOutput{}, fmt.Errorf("failed to build tree: %w", err)
	}

	var results []interface{}
	for _, row := range flattenTree(tree.Root) {
		if len(results) >= input.Limit {
			break
		}
		results = append(results, row)
	}
	return &mcp.CallToolResult{}, output("tree", results), nil
}

func (h *QueryHandlers) queryIssues(ctx context.Context, input QueryOrgInput) (*mcp.CallToolResult, QueryOrgOutput, error) {
	if input.AccountID == "" {
		return nil, QueryOrgOutput{}, fmt.Errorf("account_id is required for issue queries")
	}
	issues, err := h.svc.Audit(ctx, input.AccountID)
	if err != nil {
		return nil, QueryOrgOutput{}, fmt.Errorf("failed to audit: %w", err)
	}

	var results []interface{}
	for _, is := range issues {
		if len(results) >= input.Limit {
			break
		}
		if input.Query != "" && !is.Involves(input.Query) {
			continue
		}
		results = append(results, is)
	}
	return &mcp.CallToolResult{}, output("issues", results), nil
}

type AuditOrgChartInput struct {
	AccountID string `json:"account_id" jsonschema:"Account to check"`
	Fix       bool   `json:"fix,omitempty" jsonschema:"Repair the chart, treating each person's manager as authoritative"`
}

type AuditOrgChartOutput struct {
	AccountID string           `json:"account_id"`
	Issues    []orgchart.Issue `json:"issues"`
	Repaired  []string         `json:"repaired,omitempty"`
}

func (h *QueryHandlers) AuditOrgChart(ctx context.Context, req *mcp.CallToolRequest, input AuditOrgChartInput) (*mcp.CallToolResult, AuditOrgChartOutput, error) {
	if input.AccountID == "" {
		return nil, AuditOrgChartOutput{}, fmt.Errorf("account_id is required")
	}
	issues, err := h.svc.Audit(ctx, input.AccountID)
	if err != nil {
		return nil, AuditOrgChartOutput{}, fmt.Errorf("failed to audit: %w", err)
	}
	out := AuditOrgChartOutput{AccountID: input.AccountID, Issues: issues}

	if input.Fix && len(issues) > 0 {
		changed, err := h.svc.Repair(ctx, input.AccountID)
		if err != nil {
			return nil, AuditOrgChartOutput{}, fmt.Errorf("failed to repair: %w", err)
		}
		for _, p := range changed {
			out.Repaired = append(out.Repaired, p.Email)
		}
	}
	return &mcp.CallToolResult{}, out, nil
}
