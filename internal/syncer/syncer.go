// Package syncer pulls the rule snapshot from the dashboard API into the
// local cache consumed by offline serving.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/jeffdev/prism-mcp/internal/config"
	"github.com/jeffdev/prism-mcp/internal/rules"
)

// rulesEndpoint is the dashboard API path serving the snapshot.
const rulesEndpoint = "/api/prism/rules"

// Client pulls rule snapshots over HTTPS with bearer authentication.
type Client struct {
	http   *http.Client
	apiURL string
	token  string
	logger *log.Logger
}

// New creates a sync client from the CLI config.
func New(cfg *config.Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		http:   &http.Client{Timeout: 30 * time.Second},
		apiURL: cfg.APIURL,
		token:  cfg.Token,
		logger: logger,
	}
}

// Pull fetches and validates a snapshot from the API. Transient upstream
// failures (429, 5xx) are retried with exponential backoff; client errors
// fail immediately.
func (c *Client) Pull(ctx context.Context) (*rules.Snapshot, error) {
	if c.apiURL == "" {
		return nil, fmt.Errorf("no API URL configured")
	}

	var snap rules.Snapshot

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+rulesEndpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			c.logger.Warn("snapshot fetch failed, retrying", "status", resp.StatusCode)
			return fmt.Errorf("transient status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("snapshot fetch returned %d: %s", resp.StatusCode, body))
		}

		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return backoff.Permanent(fmt.Errorf("decode snapshot: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}

	if snap.Version == 0 {
		snap.Version = rules.SnapshotVersion
	}
	if snap.SyncedAt.IsZero() {
		snap.SyncedAt = time.Now().UTC()
	}

	// Validate before writing anything to disk.
	if _, err := rules.NewSnapshotRepository(&snap); err != nil {
		return nil, fmt.Errorf("snapshot failed validation: %w", err)
	}

	return &snap, nil
}

// WriteSnapshot persists a snapshot atomically: write to a temp file in the
// same directory, then rename over the target. A flock on a sibling lock
// file keeps concurrent `prism sync` runs from interleaving.
func WriteSnapshot(path string, snap *rules.Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock snapshot: %w", err)
	}
	defer lock.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "rules-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Sync pulls a snapshot and writes it to path. Returns the rule count.
func (c *Client) Sync(ctx context.Context, path string) (int, error) {
	snap, err := c.Pull(ctx)
	if err != nil {
		return 0, err
	}

	if err := WriteSnapshot(path, snap); err != nil {
		return 0, err
	}

	c.logger.Info("snapshot written", "path", path, "rules", len(snap.Rules), "transcript_chunks", len(snap.TranscriptChunks))
	return len(snap.Rules), nil
}
