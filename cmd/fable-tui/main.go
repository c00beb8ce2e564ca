// ABOUTME: Interactive terminal client for the fable conversation engine.
// ABOUTME: Readline-style input, streamed assistant output, slash commands for session management.

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/fablesmith/fable-client/internal/agents"
	"github.com/fablesmith/fable-client/internal/artifact"
	"github.com/fablesmith/fable-client/internal/config"
	"github.com/fablesmith/fable-client/internal/controller"
	"github.com/fablesmith/fable-client/internal/kvstore"
	"github.com/fablesmith/fable-client/internal/persist"
	"github.com/fablesmith/fable-client/internal/session"
	"github.com/fablesmith/fable-client/internal/stream"
)

// Version is set at build time.
var version = "dev"

// getConfigPath returns the path to the client config file.
// Priority: FABLE_CONFIG env var > XDG_CONFIG_HOME/fable/client.yaml > ~/.config/fable/client.yaml
func getConfigPath() string {
	if envPath := os.Getenv("FABLE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "client.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "fable", "client.yaml")
}

// getDataPath returns the default location for the local database.
// Priority: XDG_DATA_HOME/fable > ~/.local/share/fable
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "fable", "client.db")
}

func main() {
	configPath := flag.String("config", "", "Config file path (default: XDG config dir)")
	serverURL := flag.String("server", "", "Backend URL (overrides config)")
	agentID := flag.String("agent", "", "Agent for the active session")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = getConfigPath()
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *agentID, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

func setupLogger(lc config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func openStore(cfg *config.Config) (kvstore.Store, error) {
	path := cfg.Storage.Path
	if path == ":memory:" {
		return kvstore.NewMemory(), nil
	}
	if path == "" {
		path = getDataPath()
	}
	return kvstore.NewSQLite(path)
}

func run(ctx context.Context, cfg *config.Config, agentFlag string, logger *slog.Logger) error {
	kv, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer kv.Close()

	adapter := persist.NewAdapter(kv, logger)
	dir := session.NewDirectory(adapter, logger)
	artifacts := artifact.NewStore()
	client := stream.NewClient(cfg.Server.URL, cfg.Client.UserID, logger)

	ctrl := controller.New(dir, adapter, artifacts, client, logger)
	if cfg.Chat.TurnTimeout > 0 {
		ctrl.SetTurnTimeout(cfg.Chat.TurnTimeout)
	}

	done := make(chan struct{}, 1)
	dim := color.New(color.Faint)
	ctrl.SetHooks(controller.Hooks{
		OnText:      func(chunk string) { fmt.Print(chunk) },
		OnToolStart: func(tool string) { dim.Printf("\n[tool] %s\n", tool) },
		OnTurnDone: func() {
			select {
			case done <- struct{}{}:
			default:
			}
		},
	})
	ctrl.Init(ctx)

	// Rebind a fresh session when an agent was requested up front.
	if active, ok := ctrl.ActiveSession(); ok {
		want := agentFlag
		if want == "" && len(ctrl.Messages()) == 0 {
			want = cfg.Chat.DefaultAgent
		}
		if want != "" && want != active.Agent {
			if !agents.Valid(want) {
				return fmt.Errorf("unknown agent %q", want)
			}
			ctrl.UpdateSession(ctx, active.ID, nil, &want)
		}
	}

	color.Cyan("fable %s connected to %s", version, cfg.Server.URL)
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		printPrompt(ctrl)

		input, err := readLine(ctx, scanner)
		if err == io.EOF || err == context.Canceled {
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := handleCommand(ctx, ctrl, input); quit {
				return nil
			}
			fmt.Println()
			continue
		}

		sendAndWait(ctx, ctrl, done, input)
		fmt.Println()
	}
}

// readLine reads one line of input, honoring context cancellation.
func readLine(ctx context.Context, scanner *bufio.Scanner) (string, error) {
	inputCh := make(chan string, 1)
	errCh := make(chan error, 1)

	go func() {
		if scanner.Scan() {
			inputCh <- scanner.Text()
		} else {
			if err := scanner.Err(); err != nil {
				errCh <- err
			} else {
				errCh <- io.EOF
			}
		}
	}()

	select {
	case <-ctx.Done():
		return "", context.Canceled
	case err := <-errCh:
		return "", err
	case input := <-inputCh:
		return input, nil
	}
}

func printPrompt(ctrl *controller.Controller) {
	active, ok := ctrl.ActiveSession()
	if !ok {
		fmt.Print("> ")
		return
	}
	color.New(color.FgGreen).Printf("[%s | %s]> ", active.Title, strings.ToUpper(active.Agent))
}

// sendAndWait runs one turn and blocks until it finishes, printing streamed
// text as it arrives via the hooks.
func sendAndWait(ctx context.Context, ctrl *controller.Controller, done <-chan struct{}, text string) {
	// Drop a stale completion token from a turn that raced our last check.
	select {
	case <-done:
	default:
	}

	before, _ := ctrl.Panel()

	if err := ctrl.Send(ctx, text, ""); err != nil {
		color.Yellow("[busy] %v", err)
		return
	}
	failed := !ctrl.IsStreaming() // open failed, turn already done

	select {
	case <-done:
	case <-ctx.Done():
		return
	}

	if failed {
		// Nothing streamed; the inline fallback is already on the timeline.
		printLastAssistant(ctrl)
		return
	}
	fmt.Println()

	if after, ok := ctrl.Panel(); ok && after != before {
		color.New(color.Faint).Printf("[%s updated, %d words]\n", after.Title, after.WordCount)
	}
}

func printLastAssistant(ctrl *controller.Controller) {
	messages := ctrl.Messages()
	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	if last.Role == persist.RoleAssistant && last.Content != "" {
		color.Red(last.Content)
	}
}

// handleCommand dispatches a slash command; true means quit.
func handleCommand(ctx context.Context, ctrl *controller.Controller, input string) bool {
	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/quit", "/exit", "/q":
		return true

	case "/help":
		printHelp()

	case "/agents":
		fmt.Println("Available agents:")
		for _, a := range agents.Catalog {
			fmt.Printf("  %-12s %s\n", a.ID, a.Label)
		}

	case "/new":
		if args != "" && !agents.Valid(args) {
			color.Yellow("Unknown agent %q; see /agents", args)
			break
		}
		if _, err := ctrl.CreateSession(ctx, args); err != nil {
			color.Yellow("[busy] %v", err)
			break
		}
		active, _ := ctrl.ActiveSession()
		fmt.Printf("Started a new conversation with %s\n", agents.Label(active.Agent))

	case "/sessions":
		active, _ := ctrl.ActiveSession()
		for i, s := range ctrl.Sessions() {
			marker := " "
			if s.ID == active.ID {
				marker = "*"
			}
			fmt.Printf("%s %2d. %-20s [%s]\n", marker, i+1, s.Title, s.Agent)
		}

	case "/switch":
		n, err := strconv.Atoi(args)
		sessions := ctrl.Sessions()
		if err != nil || n < 1 || n > len(sessions) {
			color.Yellow("Usage: /switch <number> (see /sessions)")
			break
		}
		if err := ctrl.SwitchSession(ctx, sessions[n-1].ID); err != nil {
			color.Yellow("[busy] %v", err)
			break
		}
		printTimeline(ctrl)

	case "/rename":
		if args == "" {
			color.Yellow("Usage: /rename <title>")
			break
		}
		if active, ok := ctrl.ActiveSession(); ok {
			ctrl.UpdateSession(ctx, active.ID, &args, nil)
		}

	case "/delete":
		active, ok := ctrl.ActiveSession()
		if !ok {
			break
		}
		if err := ctrl.DeleteSession(ctx, active.ID); err != nil {
			color.Yellow("[busy] %v", err)
			break
		}
		fmt.Println("Conversation deleted.")

	case "/clear":
		if err := ctrl.ClearMessages(ctx); err != nil {
			color.Yellow("[busy] %v", err)
		}

	case "/artifacts":
		recent := ctrl.Artifacts()
		if len(recent) == 0 {
			fmt.Println("No artifacts yet.")
			break
		}
		for _, a := range recent {
			fmt.Printf("  [%s] %s\n", a.Type, truncate(a.Content, 60))
		}

	case "/panel":
		panel, ok := ctrl.Panel()
		if !ok {
			fmt.Println("No panel content yet.")
			break
		}
		fmt.Printf("%s (%d words)\n\n%s\n", panel.Title, panel.WordCount, panel.Content)

	default:
		color.Yellow("Unknown command %s; see /help", cmd)
	}
	return false
}

func printTimeline(ctrl *controller.Controller) {
	for _, m := range ctrl.Messages() {
		if m.Role == persist.RoleUser {
			color.New(color.FgBlue).Printf("you> ")
			fmt.Println(m.Content)
		} else {
			color.New(color.FgGreen).Printf("%s> ", strings.ToUpper(m.Agent))
			fmt.Println(m.Content)
		}
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /new [agent]     Start a new conversation (optionally with an agent)")
	fmt.Println("  /sessions        List conversations, most recent first")
	fmt.Println("  /switch <n>      Switch to conversation n from /sessions")
	fmt.Println("  /rename <title>  Rename the active conversation")
	fmt.Println("  /delete          Delete the active conversation")
	fmt.Println("  /clear           Clear the active conversation's messages")
	fmt.Println("  /agents          List available agents")
	fmt.Println("  /artifacts       Show recent artifacts")
	fmt.Println("  /panel           Show the current panel content")
	fmt.Println("  /help            Show this help")
	fmt.Println("  /quit            Exit")
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
