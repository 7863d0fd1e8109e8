// ABOUTME: MCP server assembly
// ABOUTME: Registers every org chart tool, resource and prompt on one server
package handlers

import (
	"github.com/harperreed/orgmap/directory"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds the MCP server over svc.
func NewServer(svc *directory.Service, version string) *mcp.Server {
	personHandlers := NewPersonHandlers(svc)
	reparentHandlers := NewReparentHandlers(svc)
	vizHandlers := NewVizHandlers(svc)
	queryHandlers := NewQueryHandlers(svc)
	resourceHandlers := NewResourceHandlers(svc)
	promptHandlers := NewPromptHandlers(svc)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "orgmap",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_persons",
		Description: "List every person in an account's org chart in storage order",
	}, personHandlers.ListPersons)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_person",
		Description: "Find a person by name or email; prefix matches rank ahead of substring matches",
	}, personHandlers.FindPerson)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_org_tree",
		Description: "Get the reporting chain above a person and everyone below them",
	}, personHandlers.GetOrgTree)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_reparent",
		Description: "Check whether moving a person under a new manager is allowed, without saving",
	}, reparentHandlers.ValidateReparent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reparent_person",
		Description: "Move a person under a new manager, updating both managers' reportees",
	}, reparentHandlers.ReparentPerson)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "org_chart_graph",
		Description: "Render an account's org chart, or the chart around one person, as GraphViz DOT",
	}, vizHandlers.OrgChartGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "audit_org_chart",
		Description: "Check an org chart for broken reporting lines and cycles, optionally repairing them",
	}, queryHandlers.AuditOrgChart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_org",
		Description: "Query persons, accounts, trees or consistency issues with optional filters",
	}, queryHandlers.QueryOrg)

	server.AddResource(&mcp.Resource{
		Name:     "accounts",
		URI:      resourceScheme + "accounts",
		MIMEType: "application/json",
	}, resourceHandlers.ReadResource)

	for _, tpl := range []*mcp.ResourceTemplate{
		{Name: "account", URITemplate: resourceScheme + "accounts/{accountId}", MIMEType: "application/json"},
		{Name: "account-persons", URITemplate: resourceScheme + "accounts/{accountId}/persons", MIMEType: "application/json"},
		{Name: "account-issues", URITemplate: resourceScheme + "accounts/{accountId}/issues", MIMEType: "application/json"},
	} {
		server.AddResourceTemplate(tpl, resourceHandlers.ReadResource)
	}

	server.AddPrompt(&mcp.Prompt{
		Name:        "stakeholder-map",
		Description: "Analyze the stakeholders around a person",
		Arguments: []*mcp.PromptArgument{
			{Name: "account_id", Description: "Account of the chart", Required: true},
			{Name: "focus", Description: "Email or name of the person to centre on"},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "account-health",
		Description: "Summarize sentiment and data quality for an account",
		Arguments: []*mcp.PromptArgument{
			{Name: "account_id", Description: "Account to assess", Required: true},
		},
	}, promptHandlers.GetPrompt)

	return server
}
