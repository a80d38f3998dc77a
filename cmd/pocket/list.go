package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calebmcf/pocket/internal/ledger"
	"github.com/calebmcf/pocket/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "record",
	Short:   "List expenses waiting in the local buffer",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		buf := openBuffer(cfg)
		defer buf.Close()

		expenses, err := buf.Expenses(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading buffer: %v\n", err)
			os.Exit(1)
		}

		if len(expenses) == 0 {
			fmt.Printf("%s No pending expenses\n", ui.RenderMuted("·"))
			return
		}

		fmt.Printf("\n%s Pending Expenses\n\n", ui.RenderAccent("💸"))
		for _, e := range expenses {
			owner := e.OwnerID
			if ledger.IsPlaceholderOwner(owner) {
				owner = ui.RenderMuted("(unclaimed)")
			}
			fmt.Printf("  %s  %8s  %-30s %s %s\n",
				e.Date, e.Amount.StringFixed(2), e.Description, ui.RenderMuted(e.Category), owner)
		}
		fmt.Printf("\n%s\n", ui.RenderMuted(fmt.Sprintf("%d pending; run 'pocket sync' to push", len(expenses))))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
