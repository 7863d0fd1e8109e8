// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the org_chart_graph tool for agents
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/models"
	"github.com/harperreed/orgmap/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	svc       *directory.Service
	generator *viz.GraphGenerator
}

func NewVizHandlers(svc *directory.Service) *VizHandlers {
	return &VizHandlers{svc: svc, generator: viz.NewGraphGenerator()}
}

type OrgChartGraphInput struct {
	AccountID string `json:"account_id" jsonschema:"Account of the chart"`
	Focus     string `json:"focus,omitempty" jsonschema:"Person to centre on; empty renders the whole account"`
}

type OrgChartGraphOutput struct {
	AccountID string `json:"account_id"`
	Focus     string `json:"focus,omitempty"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) OrgChartGraph(ctx context.Context, request *mcp.CallToolRequest, input OrgChartGraphInput) (*mcp.CallToolResult, OrgChartGraphOutput, error) {
	if input.AccountID == "" {
		return nil, OrgChartGraphOutput{}, fmt.Errorf("account_id is required")
	}

	out := OrgChartGraphOutput{AccountID: input.AccountID}
	var dot string
	if input.Focus == "" {
		persons, err := h.svc.ListPersons(ctx, input.AccountID)
		if err != nil {
			return nil, OrgChartGraphOutput{}, fmt.Errorf("failed to list persons: %w", err)
		}
		dot, err = h.generator.GenerateAccountGraph(input.AccountID, persons)
		if err != nil {
			return nil, OrgChartGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
		}
		out.NodeCount = len(persons)
		out.EdgeCount = countReportingLines(persons)
	} else {
		tree, err := h.svc.ScopedTree(ctx, input.AccountID, input.Focus)
		if err != nil {
			return nil, OrgChartGraphOutput{}, fmt.Errorf("failed to build tree: %w", err)
		}
		out.Focus = tree.Root.Email
		dot, err = h.generator.GenerateOrgChart(tree)
		if err != nil {
			return nil, OrgChartGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
		}
		out.NodeCount = len(tree.Ancestors) + tree.Root.Size()
		out.EdgeCount = out.NodeCount - 1
	}

	out.DOTSource = dot
	return &mcp.CallToolResult{}, out, nil
}

// countReportingLines counts managers that resolve to another person in the list.
func countReportingLines(persons []models.Person) int {
	keys := make(map[string]bool, len(persons))
	for i := range persons {
		keys[persons[i].Key()] = true
	}
	n := 0
	for i := range persons {
		p := &persons[i]
		if mgr := p.Manager(); mgr != "" && keys[models.EmailKey(mgr)] && !models.SameEmail(mgr, p.Email) {
			n++
		}
	}
	return n
}
