// ABOUTME: MCP tools for changing reporting lines
// ABOUTME: validate_reparent checks a move without writing; reparent_person applies it
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/orgmap/directory"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ReparentHandlers struct {
	svc *directory.Service
}

func NewReparentHandlers(svc *directory.Service) *ReparentHandlers {
	return &ReparentHandlers{svc: svc}
}

type ReparentInput struct {
	AccountID  string `json:"account_id" jsonschema:"Account of the chart"`
	Email      string `json:"email" jsonschema:"Email of the person to move"`
	NewManager string `json:"new_manager,omitempty" jsonschema:"Email of the new manager; empty moves the person to the top of the chart"`
}

type ReparentOutput struct {
	OK         bool            `json:"ok"`
	Error      string          `json:"error,omitempty"`
	Email      string          `json:"email"`
	OldManager string          `json:"old_manager,omitempty"`
	NewManager string          `json:"new_manager,omitempty"`
	NoOp       bool            `json:"no_op"`
	Updated    []PersonSummary `json:"updated"`
}

func (h *ReparentHandlers) move(ctx context.Context, input ReparentInput, dryRun bool) (*mcp.CallToolResult, ReparentOutput, error) {
	if input.AccountID == "" || input.Email == "" {
		return nil, ReparentOutput{}, fmt.Errorf("account_id and email are required")
	}
	mv, err := h.svc.Reparent(ctx, input.AccountID, input.Email, input.NewManager, dryRun)
	if err != nil {
		if dryRun && !directory.IsNotFound(err) {
			return &mcp.CallToolResult{}, ReparentOutput{OK: false, Error: err.Error(), Email: input.Email, Updated: []PersonSummary{}}, nil
		}
		return nil, ReparentOutput{}, fmt.Errorf("failed to reparent %s: %w", input.Email, err)
	}

	out := ReparentOutput{
		OK:         true,
		Email:      mv.Child,
		OldManager: mv.OldManager,
		NewManager: mv.NewManager,
		NoOp:       mv.NoOp,
		Updated:    make([]PersonSummary, len(mv.Touched)),
	}
	for i := range mv.Touched {
		out.Updated[i] = personToSummary(&mv.Touched[i])
	}
	return &mcp.CallToolResult{}, out, nil
}

// ValidateReparent reports whether a move would be accepted and what it would touch.
func (h *ReparentHandlers) ValidateReparent(ctx context.Context, req *mcp.CallToolRequest, input ReparentInput) (*mcp.CallToolResult, ReparentOutput, error) {
	return h.move(ctx, input, true)
}

func (h *ReparentHandlers) ReparentPerson(ctx context.Context, req *mcp.CallToolRequest, input ReparentInput) (*mcp.CallToolResult, ReparentOutput, error) {
	return h.move(ctx, input, false)
}
