// Command console is the operator console for the spot optimizer backend.
//
// # Usage
//
//	console [flags] <command> [args]
//
// # Commands
//
//	watch [view]                       open a view (default dashboard) and stream updates as JSON lines
//	view <view>                        load a view once and print it
//	views                              list view names
//	toggle-agent <agent-id> on|off     enable or disable an agent
//	retire-agent <agent-id> [reason]   retire an agent, keeping its switch history
//	delete-agent <agent-id>            delete an agent; its switch history is kept
//	create-client <name> [company]     create a client and print its token
//	delete-client <client-id> [name]   delete a client after typing its stored name
//	client-token <client-id>           print a client's current token
//	regenerate-token <client-id> <name>
//	force-switch <instance-id> spot|ondemand [pool-id]
//	mark-read <notification-id>|all
//	health                             check backend health
//
// # Configuration
//
// Configuration can be provided via:
// - Command-line flags
// - Environment variables (SPOTCONSOLE_*)
// - Config file (--config)
//
// # Examples
//
//	console --backend https://spot.example.com --token-file /run/secrets/admin watch dashboard
//	console --config /etc/spot-console/console.yaml --client c-42 --range 30d view client-savings
//	console --client c-42 watch client-live
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/pilot-net/spot-console/console"
	"github.com/pilot-net/spot-console/console/internal/action"
	"github.com/pilot-net/spot-console/console/internal/config"
	"github.com/pilot-net/spot-console/console/internal/view"
	"github.com/pilot-net/spot-console/pkg/types"
)

func main() {
	// Parse flags
	var (
		configFile = flag.String("config", "", "Path to config file")
		backend    = flag.String("backend", "", "Backend URL")
		token      = flag.String("token", "", "Admin API token")
		tokenFile  = flag.String("token-file", "", "File holding the admin API token")
		redisURL   = flag.String("redis", "", "Redis URL for the feed cache")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		version    = flag.Bool("version", false, "Print version and exit")
	)
	var vf viewFlags
	vf.register(flag.CommandLine)
	flag.Parse()

	// Print version
	if *version {
		fmt.Printf("spot-console %s\n", console.Version)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: console [flags] <command> [args]")
		fmt.Fprint(os.Stderr, commandHelp)
		flag.PrintDefaults()
		os.Exit(2)
	}
	command, args := flag.Arg(0), flag.Args()[1:]

	if command == "views" {
		for _, k := range view.Kinds() {
			fmt.Println(k)
		}
		return
	}

	// Set up logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Load configuration
	cfg := config.DefaultConfig()

	// Load from file if specified
	if *configFile != "" {
		fileCfg, err := config.LoadFromFile(*configFile)
		if err != nil {
			logger.Error("failed to load config file", "error", err)
			os.Exit(1)
		}
		cfg = fileCfg
	}

	// Apply environment overrides
	cfg.ApplyEnvOverrides()

	// Apply flag overrides
	if *backend != "" {
		cfg.Backend.URL = *backend
	}
	if *token != "" {
		cfg.Auth.Token = *token
	}
	if *tokenFile != "" {
		cfg.Auth.TokenFile = *tokenFile
	}
	if *redisURL != "" {
		cfg.Cache.RedisURL = *redisURL
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	con, err := console.New(ctx, cfg, newTerminalConfirmer(os.Stdin, os.Stderr), logger)
	if err != nil {
		logger.Error("failed to create console", "error", err)
		os.Exit(1)
	}
	defer con.Close()

	if err := run(ctx, con, command, args, vf, os.Stdout); err != nil {
		if errors.Is(err, action.ErrDeclined) {
			fmt.Fprintln(os.Stderr, "cancelled")
			os.Exit(1)
		}
		logger.Error("command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

// run executes one command.
func run(ctx context.Context, con *console.Console, command string, args []string, vf viewFlags, out io.Writer) error {
	switch command {
	case "watch":
		if len(args) == 0 {
			args = []string{string(view.KindDashboard)}
		}
		d, err := vf.descriptor(args)
		if err != nil {
			return err
		}
		var mu sync.Mutex
		enc := json.NewEncoder(out)
		return con.Watch(ctx, d, func(u console.Update) {
			mu.Lock()
			defer mu.Unlock()
			if err := enc.Encode(u); err != nil {
				slog.Debug("encoding update", "error", err)
			}
		})

	case "view":
		d, err := vf.descriptor(args)
		if err != nil {
			return err
		}
		state, err := con.Load(ctx, d)
		if err != nil {
			return err
		}
		return printJSON(out, state)

	case "toggle-agent":
		if len(args) != 2 {
			return usage("toggle-agent <agent-id> on|off")
		}
		enabled, err := parseOnOff(args[1])
		if err != nil {
			return err
		}
		return con.Actions().ToggleAgent(ctx, args[0], enabled)

	case "retire-agent", "delete-agent":
		if len(args) < 1 {
			return usage(command + " <agent-id> [reason]")
		}
		mode := action.RemovalRetire
		if command == "delete-agent" {
			mode = action.RemovalDelete
		}
		return con.Actions().RemoveAgent(ctx, action.RemoveAgentRequest{
			AgentID: args[0],
			Label:   args[0],
			Mode:    mode,
			Reason:  strings.Join(args[1:], " "),
		})

	case "create-client":
		if len(args) < 1 {
			return usage("create-client <name> [company]")
		}
		company := ""
		if len(args) > 1 {
			company = strings.Join(args[1:], " ")
		}
		created, err := con.Actions().CreateClient(ctx, args[0], company)
		if err != nil {
			return err
		}
		return printJSON(out, created)

	case "delete-client":
		if len(args) < 1 || len(args) > 2 {
			return usage("delete-client <client-id> [name]")
		}
		ref := action.ClientRef{ID: args[0]}
		if len(args) == 2 {
			ref.Name = args[1]
		}
		return con.Actions().DeleteClient(ctx, ref)

	case "client-token":
		if len(args) != 1 {
			return usage("client-token <client-id>")
		}
		tok, err := con.Client().ClientToken(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, tok)
		return nil

	case "regenerate-token":
		if len(args) != 2 {
			return usage("regenerate-token <client-id> <name>")
		}
		tok, err := con.Actions().RegenerateToken(ctx, action.ClientRef{ID: args[0], Name: args[1]})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, tok)
		return nil

	case "force-switch":
		if len(args) < 2 || len(args) > 3 {
			return usage("force-switch <instance-id> spot|ondemand [pool-id]")
		}
		target, err := types.ParseMode(args[1])
		if err != nil {
			return err
		}
		req := action.ForceSwitchRequest{
			InstanceID: args[0],
			Label:      args[0],
			Target:     target,
			Priority:   vf.priority,
		}
		if len(args) == 3 {
			req.PoolID = args[2]
		}
		return con.Actions().ForceSwitch(ctx, req)

	case "mark-read":
		if len(args) != 1 {
			return usage("mark-read <notification-id>|all")
		}
		if args[0] == "all" {
			return con.Actions().MarkAllNotificationsRead(ctx, types.NotificationFilter{ClientID: vf.clientID})
		}
		return con.Actions().MarkNotificationRead(ctx, args[0])

	case "health":
		h, err := con.Client().Health(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, h)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// commandHelp is printed when no command is given.
const commandHelp = `
commands:
  watch [view]                       open a view (default dashboard) and stream updates
  view <view>                        load a view once and print it
  views                              list view names
  toggle-agent <agent-id> on|off     enable or disable an agent
  retire-agent <agent-id> [reason]   retire an agent, keeping its switch history
  delete-agent <agent-id>            delete an agent; its switch history is kept
  create-client <name> [company]     create a client and print its token
  delete-client <client-id> [name]   delete a client after typing its stored name
  client-token <client-id>           print a client's current token
  regenerate-token <client-id> <name>
  force-switch <instance-id> spot|ondemand [pool-id]
  mark-read <notification-id>|all
  health                             check backend health

flags:
`

func usage(s string) error {
	return fmt.Errorf("usage: console %s", s)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "enable", "enabled":
		return true, nil
	case "off", "false", "disable", "disabled":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
