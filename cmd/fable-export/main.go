// ABOUTME: Exports a persisted conversation to a standalone HTML transcript.
// ABOUTME: Reads the same local store as fable-tui; writes to a file or stdout.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fablesmith/fable-client/internal/config"
	"github.com/fablesmith/fable-client/internal/export"
	"github.com/fablesmith/fable-client/internal/kvstore"
	"github.com/fablesmith/fable-client/internal/persist"
)

func main() {
	configPath := flag.String("config", "", "Config file path")
	sessionID := flag.String("session", "", "Session id to export (default: most recent)")
	output := flag.String("o", "", "Output file (default: stdout)")
	list := flag.Bool("list", false, "List sessions and exit")
	flag.Parse()

	if err := run(*configPath, *sessionID, *output, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func storagePath(configPath string) (string, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return "", err
		}
		if cfg.Storage.Path != "" {
			return cfg.Storage.Path, nil
		}
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "fable", "client.db"), nil
}

func run(configPath, sessionID, output string, list bool) error {
	path, err := storagePath(configPath)
	if err != nil {
		return err
	}

	kv, err := kvstore.NewSQLite(path)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer kv.Close()

	ctx := context.Background()
	adapter := persist.NewAdapter(kv, nil)

	sessions, err := adapter.LoadSessionList(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return fmt.Errorf("no conversations in %s", path)
	}

	if list {
		for _, s := range sessions {
			fmt.Printf("%s  %-20s [%s]\n", s.ID, s.Title, s.Agent)
		}
		return nil
	}

	target := sessions[0]
	if sessionID != "" {
		found := false
		for _, s := range sessions {
			if s.ID == sessionID {
				target = s
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("session %s not found (try -list)", sessionID)
		}
	} else {
		for _, s := range sessions {
			if s.UpdatedAt > target.UpdatedAt {
				target = s
			}
		}
	}

	messages, err := adapter.LoadMessages(ctx, target.ID)
	if err != nil {
		return err
	}

	html, err := export.RenderTranscript(target, messages)
	if err != nil {
		return fmt.Errorf("rendering transcript: %w", err)
	}

	if output == "" {
		_, err = os.Stdout.Write(html)
		return err
	}
	if err := os.WriteFile(output, html, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", output)
	return nil
}
