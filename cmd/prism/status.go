package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeffdev/prism-mcp/internal/config"
	"github.com/jeffdev/prism-mcp/internal/rules"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and snapshot freshness",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	switch {
	case errors.Is(err, config.ErrNotConfigured):
		fmt.Println("Not configured. Run the dashboard login, then prism sync.")
		return nil
	case err != nil:
		return err
	}

	fmt.Printf("API:       %s\n", cfg.APIURL)
	if cfg.UserID != "" {
		fmt.Printf("User:      %s\n", cfg.UserID)
	}
	if cfg.Tier != "" {
		fmt.Printf("Tier:      %s\n", cfg.Tier)
	}
	if cfg.LastSync.IsZero() {
		fmt.Println("Last sync: never")
	} else {
		fmt.Printf("Last sync: %s (%s ago)\n",
			cfg.LastSync.Format(time.RFC3339),
			time.Since(cfg.LastSync).Round(time.Minute))
	}

	path, err := config.SnapshotPath()
	if err != nil {
		return err
	}

	repo, err := rules.LoadSnapshot(path)
	if err != nil {
		fmt.Printf("Snapshot:  missing or unreadable (%s)\n", path)
		fmt.Println("Run prism sync to download the rule snapshot.")
		return nil
	}

	fmt.Printf("Snapshot:  %s\n", path)
	fmt.Printf("Rules:     %d\n", repo.RuleCount())
	if !repo.SyncedAt().IsZero() {
		fmt.Printf("Synced at: %s\n", repo.SyncedAt().Format(time.RFC3339))
	}
	return nil
}
