// ABOUTME: MCP prompt handlers for stakeholder mapping workflows
// ABOUTME: Builds prompts from the live org chart of an account
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	svc *directory.Service
}

func NewPromptHandlers(svc *directory.Service) *PromptHandlers {
	return &PromptHandlers{svc: svc}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "stakeholder-map":
		return h.getStakeholderMapPrompt(ctx, arguments)
	case "account-health":
		return h.getAccountHealthPrompt(ctx, arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func describePerson(p *models.Person) string {
	var b strings.Builder
	b.WriteString(p.Name)
	if p.Name == "" {
		b.WriteString(p.Email)
	}
	if p.Designation != "" {
		b.WriteString(fmt.Sprintf(", %s", p.Designation))
	}
	b.WriteString(fmt.Sprintf(" [sentiment: %s, awareness: %s, role: %s]", p.Sentiment, p.Awareness, p.Type))
	return b.String()
}

func (h *PromptHandlers) getStakeholderMapPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	accountID, ok := args["account_id"]
	if !ok || accountID == "" {
		return nil, fmt.Errorf("account_id is required")
	}

	tree, err := h.svc.ScopedTree(ctx, accountID, args["focus"])
	if err != nil {
		return nil, fmt.Errorf("failed to build tree: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Map the stakeholders around %s.\n\n", describePerson(&tree.Root.Person)))

	if len(tree.Ancestors) > 0 {
		promptText.WriteString("Reporting chain (top first):\n")
		for i := range tree.Ancestors {
			promptText.WriteString(fmt.Sprintf("  - %s\n", describePerson(&tree.Ancestors[i])))
		}
		promptText.WriteString("\n")
	}

	rows := flattenTree(tree.Root)
	if len(rows) > 1 {
		promptText.WriteString("Organization below them:\n")
		for _, row := range rows[1:] {
			promptText.WriteString(fmt.Sprintf("%s- %s (%s)\n", strings.Repeat("  ", row.Depth), row.Name, row.Email))
		}
		promptText.WriteString("\n")
	}

	promptText.WriteString("Identify champions, blockers and gaps in coverage, and suggest who to engage next.")
	return userPrompt(fmt.Sprintf("Stakeholder map for %s", tree.Root.Email), promptText.String()), nil
}

func (h *PromptHandlers) getAccountHealthPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	accountID, ok := args["account_id"]
	if !ok || accountID == "" {
		return nil, fmt.Errorf("account_id is required")
	}

	persons, err := h.svc.ListPersons(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	issues, err := h.svc.Audit(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to audit: %w", err)
	}

	bySentiment := map[string][]string{}
	for i := range persons {
		p := &persons[i]
		bySentiment[p.Sentiment] = append(bySentiment[p.Sentiment], p.Email)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Assess the health of account %s (%d stakeholders).\n\n", accountID, len(persons)))
	for _, s := range []string{models.SentimentHigh, models.SentimentMedium, models.SentimentLow, models.SentimentUnknown} {
		if emails := bySentiment[s]; len(emails) > 0 {
			promptText.WriteString(fmt.Sprintf("%s sentiment: %s\n", s, strings.Join(emails, ", ")))
		}
	}
	if len(issues) > 0 {
		promptText.WriteString("\nData problems in the org chart:\n")
		for _, is := range issues {
			promptText.WriteString(fmt.Sprintf("  - %s\n", is.Message))
		}
	}
	promptText.WriteString("\nSummarize relationship strength and recommend next steps.")

	return userPrompt(fmt.Sprintf("Account health for %s", accountID), promptText.String()), nil
}
