package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/calebmcf/pocket/internal/bus"
	"github.com/calebmcf/pocket/internal/ledger"
	"github.com/calebmcf/pocket/internal/ui"
)

var receiptCmd = &cobra.Command{
	Use:     "receipt",
	GroupID: "record",
	Short:   "Manage buffered receipt images",
}

var receiptAddCmd = &cobra.Command{
	Use:   "add <image-file>",
	Short: "Buffer a receipt image for upload",
	Long: `Buffer a receipt image. The image bytes are stored base64-encoded and
upload on the next sync reproduces them exactly. Optionally link the
receipt to an expense at capture time with --expense.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		buf := openBuffer(cfg)
		defer buf.Close()

		image, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading image: %v\n", err)
			os.Exit(1)
		}

		expenseID, _ := cmd.Flags().GetString("expense")
		receipt := ledger.NewReceipt("", image, filepath.Base(args[0]), ledger.ExtractedData{}, "")
		receipt.ExpenseID = expenseID

		if err := buf.AddReceipt(cmd.Context(), receipt); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving receipt: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Buffered receipt %s (%d bytes)\n", ui.RenderPass("✓"), receipt.ID, len(image))
		if expenseID != "" {
			fmt.Printf("   Linked to expense %s\n", expenseID)
		}
	},
}

var receiptLinkCmd = &cobra.Command{
	Use:   "link <receipt-id> <expense-id>",
	Short: "Link a receipt to the expense it documents",
	Long: `Link a receipt to an expense. A buffered receipt is updated in place;
a receipt that already synced is updated remotely, which requires
connectivity and a login.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		buf := openBuffer(cfg)
		defer buf.Close()

		store, err := connectStore(cfg)
		if err != nil {
			// The buffered path still works without a remote connection.
			coordOffline := newCoordinator(cfg, buf, unreachableStore{}, bus.New(), log.New(io.Discard, "", 0))
			coordOffline.Gate().SetOnline(false)
			if linkErr := coordOffline.LinkReceipt(cmd.Context(), args[0], args[1]); linkErr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", linkErr)
				os.Exit(1)
			}
			fmt.Printf("%s Linked buffered receipt %s to expense %s\n", ui.RenderPass("✓"), args[0], args[1])
			return
		}
		defer store.Close()

		coord := newCoordinator(cfg, buf, store, bus.New(), log.New(io.Discard, "", 0))
		if err := coord.LinkReceipt(cmd.Context(), args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Linked receipt %s to expense %s\n", ui.RenderPass("✓"), args[0], args[1])
	},
}

func init() {
	receiptAddCmd.Flags().String("expense", "", "Expense id to link at capture time")
	receiptCmd.AddCommand(receiptAddCmd)
	receiptCmd.AddCommand(receiptLinkCmd)
	rootCmd.AddCommand(receiptCmd)
}
