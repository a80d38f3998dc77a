package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/calebmcf/pocket/internal/buffer"
	"github.com/calebmcf/pocket/internal/bus"
	"github.com/calebmcf/pocket/internal/config"
	"github.com/calebmcf/pocket/internal/daemon"
	"github.com/calebmcf/pocket/internal/engine"
	"github.com/calebmcf/pocket/internal/ledger"
	"github.com/calebmcf/pocket/internal/remote"
)

var rootCmd = &cobra.Command{
	Use:   "pocket",
	Short: "Offline-first expense tracking with background sync",
	Long: `Pocket records expenses, categories, and receipts into a local buffer
that works with no connectivity, and reconciles the buffer with the remote
store whenever connectivity and a login are available.

Records keep the id they were created with, so syncing is idempotent:
re-running it never duplicates data.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "record", Title: "Recording Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
	)
}

// loadConfig exits with a consistent message on config errors.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// openBuffer opens the local buffer, creating parent directories as needed.
func openBuffer(cfg config.Config) *buffer.Buffer {
	if err := os.MkdirAll(filepath.Dir(cfg.Buffer.Path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating data directory: %v\n", err)
		os.Exit(1)
	}
	buf, err := buffer.Open(cfg.Buffer.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening local buffer: %v\n", err)
		os.Exit(1)
	}
	return buf
}

// connectStore connects to the remote store. The caller decides whether a
// failure is fatal; offline commands never call this.
func connectStore(cfg config.Config) (*remote.LibSQL, error) {
	if cfg.Remote.URL == "" {
		return nil, fmt.Errorf("remote.url is not configured")
	}
	return remote.Connect(cfg.Remote.URL, cfg.Token())
}

// newCoordinator wires a coordinator over an already-open buffer and store.
// The gate starts open: connectivity was just proven by Connect and the
// identity comes from config.
func newCoordinator(cfg config.Config, buf *buffer.Buffer, store remote.Store, events *bus.Bus, logger *log.Logger) *engine.Coordinator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	gate := engine.NewGate()
	gate.SetOnline(true)
	gate.SetUser(cfg.Auth.UserID)
	return engine.New(buf, store, gate, events, logger)
}

// watchIdentity makes the daemon pick up logins performed by a separate
// pocket process. The login command rewrites the config file; the daemon
// reloads the user id from it.
func watchIdentity(d *daemon.Daemon) {
	d.WatchIdentity(config.Path(), func() (string, error) {
		cfg, err := config.Load()
		if err != nil {
			return "", err
		}
		return cfg.Auth.UserID, nil
	})
}

// unreachableStore stands in for the remote store in commands that can
// complete against the buffer alone. Every call reports unreachability.
type unreachableStore struct{}

var errUnreachable = fmt.Errorf("remote store not reachable")

func (unreachableStore) Ping(ctx context.Context) error { return errUnreachable }
func (unreachableStore) InsertExpenses(ctx context.Context, _ []ledger.Expense) error {
	return errUnreachable
}
func (unreachableStore) SelectExpenseIDs(ctx context.Context) (map[string]struct{}, error) {
	return nil, errUnreachable
}
func (unreachableStore) InsertCategories(ctx context.Context, _ []ledger.Category) error {
	return errUnreachable
}
func (unreachableStore) SelectCategoryIdentities(ctx context.Context) ([]remote.CategoryIdentity, error) {
	return nil, errUnreachable
}
func (unreachableStore) InsertReceipts(ctx context.Context, _ []ledger.Receipt) error {
	return errUnreachable
}
func (unreachableStore) SelectReceiptIDs(ctx context.Context) (map[string]struct{}, error) {
	return nil, errUnreachable
}
func (unreachableStore) LinkReceipt(ctx context.Context, _, _ string) error { return errUnreachable }

// seedCategories ensures the default (or configured) category set is
// present in the buffer, so names resolve while offline.
func seedCategories(cfg config.Config, buf *buffer.Buffer, cmd *cobra.Command) {
	ctx := cmd.Context()
	existing, err := buf.Categories(ctx)
	if err != nil || len(existing) > 0 {
		return
	}
	seeds, err := ledger.LoadCategorySeeds(cfg.Buffer.SeedFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load category seeds: %v\n", err)
		seeds = ledger.DefaultCategories()
	}
	for _, cat := range seeds {
		cat := cat
		if err := buf.AddCategory(ctx, &cat); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to seed category %s: %v\n", cat.Name, err)
		}
	}
}
