// ABOUTME: Entry point for the prm web server, MCP server, TUI and CLI
// ABOUTME: Loads configuration and routes to the surface named by the first argument
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/prm/cli"
	"github.com/harperreed/prm/config"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/handlers"
	"github.com/harperreed/prm/logging"
	"github.com/harperreed/prm/tui"
	"go.uber.org/zap"
)

type repoCommand func(repo *db.Repository, args []string) error

var crmCommands = map[string]repoCommand{
	"add-partner":       cli.AddPartnerCommand,
	"list-partners":     cli.ListPartnersCommand,
	"show-partner":      cli.ShowPartnerCommand,
	"update-partner":    cli.UpdatePartnerCommand,
	"delete-partner":    cli.DeletePartnerCommand,
	"dismiss":           cli.DismissPartnerCommand,
	"move-product":      cli.MoveProductCommand,
	"add-contact":       cli.AddContactCommand,
	"list-contacts":     cli.ListContactsCommand,
	"log":               cli.LogInteractionCommand,
	"history":           cli.HistoryCommand,
	"reminders":         cli.RemindersCommand,
	"add-reminder":      cli.AddReminderCommand,
	"complete-reminder": cli.CompleteReminderCommand,
	"add-tag":           cli.AddTagCommand,
	"list-tags":         cli.ListTagsCommand,
	"tag":               cli.TagPartnerCommand,
	"add-user":          cli.AddUserCommand,
	"list-users":        cli.ListUsersCommand,
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/prm/prm.db)")
	configPath := flag.String("config", "", "Config file (default: ~/.config/prm/config.yaml)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("prm version %s\n", handlers.Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	// keys never touches the database
	if len(args) > 0 && args[0] == "keys" {
		if err := cli.KeysCommand(args[1:]); err != nil {
			fail(err)
		}
		return
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fail(err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		fail(fmt.Errorf("failed to open database: %w", err))
	}
	defer database.Close()

	if *initOnly {
		logger.Info("database initialized", zap.String("path", cfg.DBPath))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := route(ctx, cfg, database, logger, args[0], args[1:]); err != nil {
		stop()
		_ = database.Close()
		fail(err)
	}
}

func route(ctx context.Context, cfg *config.Config, database *sql.DB, logger *zap.Logger, command string, args []string) error {
	repo := db.NewRepository(database)

	switch command {
	case "serve":
		return cli.ServeCommand(ctx, cfg, repo, logger, args)
	case "sweep":
		return cli.SweepCommand(ctx, cfg, repo, logger, args)
	case "mcp":
		return cli.MCPCommand(ctx, repo, logger)
	case "tui":
		return tui.Run(repo)
	case "export":
		return cli.ExportCommand(repo, args)
	case "import":
		return cli.ImportCommand(repo, args)

	case "crm":
		if len(args) == 0 {
			printUsage()
			return fmt.Errorf("crm requires a subcommand")
		}
		cmd, ok := crmCommands[args[0]]
		if !ok {
			printUsage()
			return fmt.Errorf("unknown crm command: %s", args[0])
		}
		return cmd(repo, args[1:])

	case "viz":
		if len(args) == 0 {
			printUsage()
			return fmt.Errorf("viz requires a subcommand")
		}
		switch args[0] {
		case "dashboard":
			return cli.VizDashboardCommand(repo, args[1:])
		case "graph":
			if len(args) < 2 || args[1] != "pipeline" {
				return fmt.Errorf("viz graph supports: pipeline")
			}
			return cli.VizGraphPipelineCommand(repo, args[2:])
		}
		printUsage()
		return fmt.Errorf("unknown viz command: %s", args[0])
	}

	printUsage()
	return fmt.Errorf("unknown command: %s", command)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Printf(`prm v%s - Partner relationship manager

USAGE:
  prm [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/prm/prm.db)
  --config <path>        Config file (default: ~/.config/prm/config.yaml)
  --init                 Initialize database and exit

COMMANDS:
  serve                  Run the web app and JSON API
    --addr <addr>            Listen address (default from config, :8080)
    --no-sweep               Do not schedule the reminder push sweep
  sweep                  Send overdue reminder pushes once and exit
    --timeout <duration>     Give up after this long (default: 10m)
  keys                   Generate a VAPID key pair for web push
  mcp                    Start MCP server on stdio for AI assistants
  tui                    Full-screen reminders feed and pipeline board
  export                 Write all partners to a spreadsheet
    --output <file>          Output file (default: partners.xlsx)
  import [--dry-run] <file>  Import partners from .csv or .xlsx
  crm                    Partner management commands
  viz                    Visualization commands

CRM COMMANDS:
  prm crm add-partner       Add a new partner
    --name <name>             Partner name (required)
    --health <status>         Active, AtRisk or Dormant (default: Active)
    --key-person <name>       Owner inside your team
    --vertical <vertical>     Industry vertical
    --use-case <text>         What they integrate for
    --attention-days <n>      Days without contact before follow-up (default: 30)
    --products <list>         e.g. "Payments:In pipeline; Lending"

  prm crm list-partners     List partners with days since last contact
    --query <text>            Search by name
    --health <status>         Filter by health status

  prm crm show-partner <partner>          Show one partner
  prm crm update-partner [flags] <partner>  Update fields (same flags as add-partner)
  prm crm delete-partner <partner>        Delete a partner and everything attached
  prm crm dismiss <partner>               Reset the follow-up clock without logging contact
  prm crm move-product [flags] <partner>  Move one product in the pipeline
    --product <name>          Product (required)
    --status <status>         New integration status (required)

  prm crm add-contact       Add a person at a partner
    --partner <partner>       Partner name or ID (required)
    --name <name>             Contact name (required)
    --email, --phone, --role, --notes

  prm crm list-contacts <partner>
  prm crm log               Log an interaction
    --partner <partner>       Partner name or ID (required)
    --type <type>             meeting, call or email (default: meeting)
    --notes <text>            What happened
    --date <YYYY-MM-DD>       When (default: now)
  prm crm history [--limit n] <partner>

  prm crm reminders         Show what needs attention
    --overdue-only            Hide upcoming reminders
    --kind <kind>             attention or custom
    --key-person <name>       Only this owner's partners
  prm crm add-reminder      --partner <partner> --title <text> --due <YYYY-MM-DD>
  prm crm complete-reminder <id>

  prm crm add-tag --name <name> [--color #hex]
  prm crm list-tags
  prm crm tag --tags <a,b> <partner>
  prm crm add-user --name <name> --email <email> [--role Admin|User|Sales] [--key-person <name>]
  prm crm list-users

VIZ COMMANDS:
  prm viz dashboard              Terminal dashboard of health, attention and pipeline
  prm viz graph pipeline         GraphViz pipeline graph
    --format <dot|svg>             Output format (default: dot)
    --output <file>                Output file (default: stdout)
    --product, --vertical          Filter the board

EXAMPLES:
  # Start the web app with push reminders
  PRM_JWT_SECRET=... prm serve

  # Log a call and see what is overdue
  prm crm log --partner "Acme" --type call --notes "Renewal chat"
  prm crm reminders --overdue-only

  # Move a product along the pipeline
  prm crm move-product --product Payments --status "In development" Acme

`, handlers.Version)
}
