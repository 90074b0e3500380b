// ABOUTME: MCP server assembly for the prm tools, resources and prompts
// ABOUTME: Registers every handler against one repository so stdio and tests share the wiring
package handlers

import (
	"github.com/harperreed/prm/db"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients during initialisation.
const Version = "0.1.0"

// NewServer builds an MCP server exposing the partner tools.
func NewServer(repo *db.Repository) *mcp.Server {
	partners := NewPartnerHandlers(repo)
	contacts := NewContactHandlers(repo)
	reminderHandlers := NewReminderHandlers(repo)
	pipelineHandlers := NewPipelineHandlers(repo)
	tags := NewTagHandlers(repo)
	vizHandlers := NewVizHandlers(repo)
	resources := NewResourceHandlers(repo)
	prompts := NewPromptHandlers(repo)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "prm",
		Version: Version,
	}, nil)

	// Partners
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_partner",
		Description: "Add a new partner organisation",
	}, partners.AddPartner)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_partners",
		Description: "Search partners by name and health status, with their attention level",
	}, partners.FindPartners)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_interaction",
		Description: "Log a call, email or meeting with a partner and reset its attention clock",
	}, partners.LogInteraction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dismiss_partner",
		Description: "Snooze a partner's attention reminder without logging an interaction",
	}, partners.DismissPartner)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a person at a partner organisation",
	}, contacts.AddContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_contacts",
		Description: "List the contacts of a partner",
	}, contacts.ListContacts)

	// Reminders
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_reminders",
		Description: "List overdue and upcoming reminders, merging attention and custom reminders",
	}, reminderHandlers.ListReminders)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_reminder",
		Description: "Create a dated custom reminder for a partner",
	}, reminderHandlers.AddReminder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_reminder",
		Description: "Mark a custom reminder as completed",
	}, reminderHandlers.CompleteReminder)

	// Pipeline
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_pipeline",
		Description: "Show the partner x product integration board grouped by status",
	}, pipelineHandlers.GetPipeline)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_product",
		Description: "Move one partner product to a new integration status",
	}, pipelineHandlers.MoveProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tags",
		Description: "List the tags available for partners",
	}, tags.ListTags)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "tag_partner",
		Description: "Replace a partner's tags by tag name",
	}, tags.TagPartner)

	// Visualization
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of partners and their product integrations",
	}, vizHandlers.GenerateGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Summarise partner health, pipeline and reminder counts",
	}, vizHandlers.GetDashboard)

	server.AddResource(&mcp.Resource{
		URI:         "prm://partners",
		Name:        "partners",
		Description: "All partners with their attention level",
		MIMEType:    "application/json",
	}, resources.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "prm://partners/{id}",
		Name:        "partner",
		Description: "One partner with contacts, recent interactions, open reminders and tags",
		MIMEType:    "application/json",
	}, resources.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         "prm://reminders",
		Name:        "reminders",
		Description: "The merged reminder list, most overdue first",
		MIMEType:    "application/json",
	}, resources.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         "prm://pipeline",
		Name:        "pipeline",
		Description: "The integration board grouped by status",
		MIMEType:    "application/json",
	}, resources.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "partner-summary",
		Description: "Summarise one partner relationship and suggest a next step",
		Arguments: []*mcp.PromptArgument{
			{Name: "partner_id", Description: "Partner ID", Required: true},
		},
	}, prompts.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "follow-up-plan",
		Description: "Plan this week's partner follow-ups from the reminder list",
		Arguments: []*mcp.PromptArgument{
			{Name: "key_person", Description: "Only reminders owned by this key person"},
		},
	}, prompts.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-review",
		Description: "Review the integration pipeline for stuck partners",
		Arguments: []*mcp.PromptArgument{
			{Name: "product", Description: "Only this product"},
		},
	}, prompts.GetPrompt)

	return server
}
