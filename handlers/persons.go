// ABOUTME: MCP tools for reading the directory
// ABOUTME: list_persons, find_person and get_org_tree
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/models"
	"github.com/harperreed/orgmap/orgchart"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PersonHandlers struct {
	svc *directory.Service
}

func NewPersonHandlers(svc *directory.Service) *PersonHandlers {
	return &PersonHandlers{svc: svc}
}

type ListPersonsInput struct {
	AccountID string `json:"account_id" jsonschema:"Account whose org chart to list"`
}

type ListPersonsOutput struct {
	AccountID string          `json:"account_id"`
	Persons   []PersonSummary `json:"persons"`
	Count     int             `json:"count"`
}

// PersonSummary is the compact view of a person returned by tools.
type PersonSummary struct {
	Email       string   `json:"email"`
	Name        string   `json:"name,omitempty"`
	Designation string   `json:"designation,omitempty"`
	Manager     string   `json:"manager,omitempty"`
	Reportees   []string `json:"reportees"`
	Sentiment   string   `json:"sentiment,omitempty"`
	Awareness   string   `json:"awareness,omitempty"`
	Type        string   `json:"type,omitempty"`
	AccountID   string   `json:"account_id"`
}

func personToSummary(p *models.Person) PersonSummary {
	reportees := p.Reportees
	if reportees == nil {
		reportees = []string{}
	}
	return PersonSummary{
		Email:       p.Email,
		Name:        p.Name,
		Designation: p.Designation,
		Manager:     p.Manager(),
		Reportees:   reportees,
		Sentiment:   p.Sentiment,
		Awareness:   p.Awareness,
		Type:        p.Type,
		AccountID:   p.AccountID,
	}
}

func (h *PersonHandlers) ListPersons(ctx context.Context, req *mcp.CallToolRequest, input ListPersonsInput) (*mcp.CallToolResult, ListPersonsOutput, error) {
	if input.AccountID == "" {
		return nil, ListPersonsOutput{}, fmt.Errorf("account_id is required")
	}
	persons, err := h.svc.ListPersons(ctx, input.AccountID)
	if err != nil {
		return nil, ListPersonsOutput{}, fmt.Errorf("failed to list persons: %w", err)
	}

	out := ListPersonsOutput{AccountID: input.AccountID, Persons: make([]PersonSummary, len(persons))}
	for i := range persons {
		out.Persons[i] = personToSummary(&persons[i])
	}
	out.Count = len(out.Persons)
	return &mcp.CallToolResult{}, out, nil
}

type FindPersonInput struct {
	AccountID string `json:"account_id" jsonschema:"Account to search"`
	Query     string `json:"query" jsonschema:"Name or email fragment"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum suggestions to return (default 10)"`
}

type FindPersonOutput struct {
	Match       *PersonSummary `json:"match,omitempty"`
	MatchedBy   string         `json:"matched_by,omitempty"`
	Suggestions []Suggestion   `json:"suggestions"`
}

type Suggestion struct {
	Person PersonSummary `json:"person"`
	Kind   string        `json:"kind"`
}

func (h *PersonHandlers) FindPerson(ctx context.Context, req *mcp.CallToolRequest, input FindPersonInput) (*mcp.CallToolResult, FindPersonOutput, error) {
	if input.AccountID == "" || input.Query == "" {
		return nil, FindPersonOutput{}, fmt.Errorf("account_id and query are required")
	}
	if input.Limit == 0 {
		input.Limit = orgchart.DefaultSuggestLimit
	}

	res, err := h.svc.Search(ctx, input.AccountID, input.Query, input.Limit)
	if err != nil {
		return nil, FindPersonOutput{}, fmt.Errorf("failed to search: %w", err)
	}

	out := FindPersonOutput{Suggestions: make([]Suggestion, len(res.Suggestions))}
	for i, m := range res.Suggestions {
		out.Suggestions[i] = Suggestion{Person: personToSummary(&m.Person), Kind: string(m.Kind)}
	}
	if res.Match != nil {
		s := personToSummary(res.Match)
		out.Match = &s
		if len(out.Suggestions) > 0 && models.SameEmail(out.Suggestions[0].Person.Email, s.Email) {
			out.MatchedBy = out.Suggestions[0].Kind
		}
	}
	return &mcp.CallToolResult{}, out, nil
}

type GetOrgTreeInput struct {
	AccountID string `json:"account_id" jsonschema:"Account of the chart"`
	Focus     string `json:"focus,omitempty" jsonschema:"Email or name of the person to centre on (default: first root)"`
}

type GetOrgTreeOutput struct {
	Focus     PersonSummary   `json:"focus"`
	Ancestors []PersonSummary `json:"ancestors"`
	Tree      []TreeRow       `json:"tree"`
	Size      int             `json:"size"`
}

// TreeRow is one person of the subtree in depth-first order.
type TreeRow struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Manager string `json:"manager,omitempty"`
	Depth   int    `json:"depth"`
}

func flattenTree(root *orgchart.TreeNode) []TreeRow {
	type frame struct {
		node    *orgchart.TreeNode
		manager string
		depth   int
	}
	var rows []TreeRow
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		rows = append(rows, TreeRow{Email: f.node.Email, Name: f.node.Name, Manager: f.manager, Depth: f.depth})
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], manager: f.node.Email, depth: f.depth + 1})
		}
	}
	return rows
}

func (h *PersonHandlers) GetOrgTree(ctx context.Context, req *mcp.CallToolRequest, input GetOrgTreeInput) (*mcp.CallToolResult, GetOrgTreeOutput, error) {
	if input.AccountID == "" {
		return nil, GetOrgTreeOutput{}, fmt.Errorf("account_id is required")
	}
	tree, err := h.svc.ScopedTree(ctx, input.AccountID, input.Focus)
	if err != nil {
		return nil, GetOrgTreeOutput{}, fmt.Errorf("failed to build tree: %w", err)
	}

	out := GetOrgTreeOutput{
		Focus:     personToSummary(&tree.Root.Person),
		Ancestors: make([]PersonSummary, len(tree.Ancestors)),
		Tree:      flattenTree(tree.Root),
		Size:      tree.Root.Size(),
	}
	for i := range tree.Ancestors {
		out.Ancestors[i] = personToSummary(&tree.Ancestors[i])
	}
	return &mcp.CallToolResult{}, out, nil
}
