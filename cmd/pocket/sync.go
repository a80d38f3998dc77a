package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/calebmcf/pocket/internal/buffer"
	"github.com/calebmcf/pocket/internal/bus"
	"github.com/calebmcf/pocket/internal/config"
	"github.com/calebmcf/pocket/internal/engine"
	"github.com/calebmcf/pocket/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Push buffered records to the remote store",
	Long: `Reconcile the local buffer with the remote store.

Only records missing remotely are pushed; records created before login are
claimed for the logged-in user. Buffered copies are removed only after
their presence remotely has been re-verified.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		buf := openBuffer(cfg)
		defer buf.Close()

		status, _ := cmd.Flags().GetBool("status")
		if status {
			printSyncStatus(cmd, cfg, buf)
			return
		}

		store, err := connectStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to remote store: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		if err := store.InitSchema(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing remote schema: %v\n", err)
			os.Exit(1)
		}

		coord := newCoordinator(cfg, buf, store, bus.New(), log.New(os.Stderr, "[sync] ", log.LstdFlags))

		fmt.Printf("%s Syncing...\n", ui.RenderAccent("🔄"))
		start := time.Now()

		result, err := coord.Sync(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		elapsed := time.Since(start).Round(time.Millisecond)
		if result.Success {
			fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), elapsed)
			fmt.Printf("   Expenses: %d\n", result.Counts[engine.RecordExpenses])
			fmt.Printf("   Categories: %d\n", result.Counts[engine.RecordCategories])
			fmt.Printf("   Receipts: %d\n", result.Counts[engine.RecordReceipts])
			return
		}

		fmt.Printf("%s Sync finished with errors (%d records pushed)\n", ui.RenderWarn("⚠"), result.TotalSynced())
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "   %s\n", e.Error())
		}
		os.Exit(1)
	},
}

// printSyncStatus shows pending counts and the last successful sync time
// without touching the network.
func printSyncStatus(cmd *cobra.Command, cfg config.Config, buf *buffer.Buffer) {
	ctx := cmd.Context()

	expenses, categories, receipts, err := buf.PendingCounts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading pending counts: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n%s Sync Status\n\n", ui.RenderAccent("📊"))
	fmt.Printf("Buffer: %s\n", cfg.Buffer.Path)
	fmt.Printf("Pending expenses: %d\n", expenses)
	fmt.Printf("Pending categories: %d\n", categories)
	fmt.Printf("Pending receipts: %d\n", receipts)

	last, err := buf.LastSyncTime(ctx)
	switch {
	case err != nil:
		fmt.Printf("Last sync: %s\n", ui.RenderWarn("unknown"))
	case last.IsZero():
		fmt.Printf("Last sync: %s\n", ui.RenderMuted("never"))
	default:
		fmt.Printf("Last sync: %s\n", last.Local().Format("2006-01-02 15:04:05"))
	}

	if cfg.Auth.UserID == "" {
		fmt.Printf("\n%s Not logged in; run 'pocket login <user-id>' to enable sync\n", ui.RenderWarn("⚠"))
	}
	fmt.Println()
}

func init() {
	syncCmd.Flags().Bool("status", false, "Show pending counts without syncing")
	rootCmd.AddCommand(syncCmd)
}
