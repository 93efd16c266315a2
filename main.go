// ABOUTME: Entry point for the offertrack CLI, TUI, MCP server, and web UI
// ABOUTME: Routes to subcommands based on arguments
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/harperreed/offertrack/backend"
	"github.com/harperreed/offertrack/charm"
	"github.com/harperreed/offertrack/cli"
	"github.com/harperreed/offertrack/config"
	"github.com/harperreed/offertrack/tracker"
	"github.com/harperreed/offertrack/tui"
	"github.com/harperreed/offertrack/web"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/offertrack/config.yaml)")
	backendName := flag.String("backend", "", "Storage backend: sqlite, badger, or charm")
	dbPath := flag.String("db-path", "", "SQLite database path")
	flag.Usage = printUsage

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("offertrack version %s\n", version)
		os.Exit(0)
	}

	if *configPath != "" {
		_ = os.Setenv("OFFERTRACK_CONFIG", *configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *backendName != "" {
		cfg.Backend = *backendName
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := cfg.NewLogger()
	args := flag.Args()

	// Commands that don't need storage
	if len(args) > 0 {
		switch args[0] {
		case "help":
			printUsage()
			return
		case "sync":
			if len(args) > 1 && args[1] == "auto" {
				if err := charm.SetAutoSyncCommand(os.Stdout, args[2:]); err != nil {
					log.Fatalf("Error: %v", err)
				}
				return
			}
		}
	}

	b, err := backend.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s backend: %v", cfg.Backend, err)
	}
	defer b.Close()

	loc, err := cfg.Location()
	if err != nil {
		_ = b.Close()
		log.Fatalf("Error: %v", err)
	}
	tr, err := b.Tracker(loc, log)
	if err != nil {
		_ = b.Close()
		log.Fatalf("Failed to load offers: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, b, tr, log, args, os.Stdout); err != nil {
		stop()
		_ = b.Close()
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, b *backend.Backend, tr *tracker.Tracker, log *logrus.Logger, args []string, out io.Writer) error {
	// No command: interactive TUI on a terminal, dashboard otherwise
	if len(args) == 0 {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			_, err := tea.NewProgram(tui.NewModel(tr), tea.WithAltScreen()).Run()
			return err
		}
		return cli.DashboardCommand(tr, out, nil)
	}

	command := args[0]
	commandArgs := args[1:]
	importer := &cli.Importer{Tracker: tr, Ledger: b.DB, Log: log}

	switch command {
	// Offer commands
	case "add", "log":
		return cli.AddOfferCommand(tr, out, commandArgs)
	case "list", "ls":
		return cli.ListOffersCommand(tr, out, commandArgs)
	case "show":
		return cli.ShowOfferCommand(tr, out, commandArgs)
	case "update":
		return cli.UpdateOfferCommand(tr, out, commandArgs)
	case "convert":
		return cli.ConvertCommand(tr, out, commandArgs)
	case "delete", "rm":
		return cli.DeleteOfferCommand(tr, out, commandArgs)

	case "followup":
		if len(commandArgs) == 0 {
			return cli.FollowupListCommand(tr, out, nil)
		}
		switch commandArgs[0] {
		case "add":
			return cli.FollowupAddCommand(tr, out, commandArgs[1:])
		case "done":
			return cli.FollowupDoneCommand(tr, out, commandArgs[1:])
		case "list":
			return cli.FollowupListCommand(tr, out, commandArgs[1:])
		default:
			return fmt.Errorf("unknown followup command: %s", commandArgs[0])
		}

	// Settings commands
	case "settings":
		return cli.SettingsCommand(tr, out, commandArgs)
	case "goal":
		return cli.GoalCommand(tr, out, commandArgs)
	case "workdays":
		return cli.WorkdaysCommand(tr, out, commandArgs)
	case "tokens":
		return cli.TokensCommand(tr, out, commandArgs)
	case "vacation":
		return cli.VacationCommand(tr, out, commandArgs)
	case "channels":
		return cli.VocabCommand(tr, "channels", out, commandArgs)
	case "types":
		return cli.VocabCommand(tr, "types", out, commandArgs)

	// Stats commands
	case "streak":
		return cli.StreakCommand(tr, out, commandArgs)
	case "pacing":
		return cli.PacingCommand(tr, out, commandArgs)
	case "metrics":
		return cli.MetricsCommand(tr, out, commandArgs)
	case "dashboard":
		return cli.DashboardCommand(tr, out, commandArgs)

	// Data commands
	case "import":
		if len(commandArgs) > 0 && commandArgs[0] == "history" {
			return cli.ImportHistoryCommand(b.DB, out, commandArgs[1:])
		}
		return cli.ImportCommand(importer, out, commandArgs)
	case "export":
		return cli.ExportCommand(tr, out, commandArgs)
	case "watch":
		return cli.WatchCommand(ctx, importer, cfg.ImportDir, commandArgs)

	case "viz":
		if len(commandArgs) == 0 || commandArgs[0] != "funnel" {
			return fmt.Errorf("usage: offertrack viz funnel [--output file]")
		}
		return cli.VizFunnelCommand(ctx, tr, out, commandArgs[1:])

	case "tui":
		_, err := tea.NewProgram(tui.NewModel(tr), tea.WithAltScreen()).Run()
		return err

	case "mcp":
		return cli.MCPCommand(ctx, tr, version, log)

	case "web":
		fs := flag.NewFlagSet("web", flag.ContinueOnError)
		addr := fs.String("addr", cfg.Web.Addr, "Listen address")
		if err := fs.Parse(commandArgs); err != nil {
			return err
		}
		srv, err := web.NewServer(tr, log)
		if err != nil {
			return err
		}
		return srv.Start(ctx, *addr)

	case "sync":
		if b.Charm == nil {
			return fmt.Errorf("sync requires the charm backend (current: %s)", b.Name)
		}
		if len(commandArgs) == 0 {
			return charm.SyncStatusCommand(b.Charm, out, nil)
		}
		switch commandArgs[0] {
		case "status":
			return charm.SyncStatusCommand(b.Charm, out, commandArgs[1:])
		case "now":
			return charm.SyncNowCommand(b.Charm, out, commandArgs[1:])
		case "wipe":
			return charm.SyncWipeCommand(b.Charm, out, commandArgs[1:])
		default:
			return fmt.Errorf("unknown sync command: %s", commandArgs[0])
		}

	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage() {
	fmt.Printf(`offertrack v%s - Offer streaks, goals, and follow-ups

USAGE:
  offertrack [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/offertrack/config.yaml)
  --backend <name>       Storage backend: sqlite, badger, or charm
  --db-path <path>       SQLite database path

With no command, offertrack opens the TUI (or prints the dashboard when
stdout is not a terminal).

OFFER COMMANDS:
  offertrack add            Log an offer
    --type <type>             Offer type (required)
    --channel <channel>       Channel (required)
    --date <YYYY-MM-DD>       Offer date (default: now)
    --case <number>           Case number
    --notes <text>            Notes
    --csat <rating>           positive, neutral, or negative
    --converted <yes|no>      Outcome, if known
    --followup <YYYY-MM-DD>   Schedule a follow-up

  offertrack list           List offers
    --channel, --type, --status <pending|converted|not_converted>, --since <date>, --limit <n>

  offertrack show <id>      Show an offer and its follow-ups
  offertrack update <id>    Update fields (--channel, --type, --case, --notes, --csat, --csat-comment, --converted)
  offertrack convert <id>   Mark converted (--no for not converted)
  offertrack delete <id>    Delete an offer

FOLLOW-UPS:
  offertrack followup add <id>   --date <YYYY-MM-DD> | --in <days>, --notes <text>
  offertrack followup done <id>  [--followup <followup-id>]
  offertrack followup list       [--within <days>] [--overdue-only]

SETTINGS:
  offertrack settings                       Show settings
  offertrack goal <n>                       Set the daily goal
  offertrack workdays mon,tue,wed [--only]  Set workdays
  offertrack tokens status|claim|use --streak <n>|config --enable --days <n>
  offertrack vacation status|start --from <date> [--until <date>]|end
  offertrack channels|types [add|remove <name>]

STATS:
  offertrack streak [--json]
  offertrack pacing [--json]
  offertrack metrics [--json]
  offertrack dashboard

DATA:
  offertrack import <file.csv|file.xlsx> [--force]
  offertrack import history
  offertrack export [--format csv|xlsx] [--output <file>]
  offertrack watch [--dir <dir>]            Import files dropped into a directory
  offertrack viz funnel [--output <file>]   Conversion funnel as DOT

SERVERS:
  offertrack tui                            Interactive terminal UI
  offertrack mcp                            MCP server over stdio
  offertrack web [--addr host:port]         Web dashboard

SYNC (charm backend):
  offertrack sync status|now|wipe --confirm
  offertrack sync auto --enable|--disable

`, version)
}
