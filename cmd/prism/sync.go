package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeffdev/prism-mcp/internal/config"
	"github.com/jeffdev/prism-mcp/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the latest rule snapshot from the Prism API",
	Long: `Downloads the rule snapshot for the configured account and writes
it to ~/.prism/rules/rules.json atomically. The server reads this file
when running with --store snapshot.

Requires a configured API URL and token in ~/.prism/config.json.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrNotConfigured) {
			return fmt.Errorf("no configuration found at ~/.prism/config.json: %w", err)
		}
		return err
	}

	path, err := config.SnapshotPath()
	if err != nil {
		return err
	}

	fmt.Printf("Syncing rules from %s...\n", cfg.APIURL)
	client := syncer.New(cfg, logger)
	count, err := client.Sync(ctx, path)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cfg.LastSync = time.Now().UTC()
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Sync complete!")
	fmt.Printf("  Rules: %d\n", count)
	fmt.Printf("  Snapshot: %s\n", path)
	return nil
}
