// ABOUTME: MCP resource handlers for exposing org chart data
// ABOUTME: Provides read-only access to accounts, persons and audit results via orgmap:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/orgmap/directory"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "orgmap://"

type ResourceHandlers struct {
	svc *directory.Service
}

func NewResourceHandlers(svc *directory.Service) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

// ReadResource serves orgmap://accounts, orgmap://accounts/{id},
// orgmap://accounts/{id}/persons and orgmap://accounts/{id}/issues.
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(uri, resourceScheme), "/"), "/")
	if parts[0] != "accounts" {
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}

	var (
		data any
		err  error
	)
	switch len(parts) {
	case 1:
		data, err = h.svc.ListAccounts(ctx)
	case 2:
		data, err = h.svc.GetAccount(ctx, parts[1])
	case 3:
		switch parts[2] {
		case "persons":
			data, err = h.svc.ListPersons(ctx, parts[1])
		case "issues":
			data, err = h.svc.Audit(ctx, parts[1])
		default:
			return nil, fmt.Errorf("unknown account resource: %s", parts[2])
		}
	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}

	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(text),
		},
	}}, nil
}
