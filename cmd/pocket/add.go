package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/calebmcf/pocket/internal/ledger"
	"github.com/calebmcf/pocket/internal/ui"
)

var addCmd = &cobra.Command{
	Use:     "add <amount> <description...>",
	GroupID: "record",
	Short:   "Record an expense in the local buffer",
	Long: `Record an expense. Works fully offline: the expense is written to the
local buffer immediately and pushed to the remote store on the next sync.

The date flag accepts natural language alongside YYYY-MM-DD:
  pocket add 12.50 lunch --date yesterday
  pocket add 89.99 "train ticket" --date "last friday" --category Transportation`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		buf := openBuffer(cfg)
		defer buf.Close()
		seedCategories(cfg, buf, cmd)

		amount, err := decimal.NewFromString(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid amount %q: %v\n", args[0], err)
			os.Exit(1)
		}
		if amount.IsNegative() || amount.IsZero() {
			fmt.Fprintf(os.Stderr, "Error: amount must be positive\n")
			os.Exit(1)
		}
		description := strings.Join(args[1:], " ")

		category, _ := cmd.Flags().GetString("category")
		dateArg, _ := cmd.Flags().GetString("date")
		date, err := parseDate(dateArg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Owner stays empty: a placeholder is assigned and rewritten to
		// the logged-in identity at sync time.
		expense := ledger.NewExpense("", amount, description, category, date)
		if err := buf.AddExpense(cmd.Context(), expense); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving expense: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Recorded %s for %s (%s)\n",
			ui.RenderPass("✓"), amount.StringFixed(2), description, expense.Date)
		if category != "" {
			fmt.Printf("   Category: %s\n", category)
		}
		fmt.Printf("   %s\n", ui.RenderMuted("Buffered locally, syncs when online and logged in"))
	},
}

// parseDate accepts YYYY-MM-DD or natural language ("yesterday", "last
// friday"). An empty value means today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(s, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return r.Time, nil
}

func init() {
	addCmd.Flags().StringP("category", "c", "", "Category name")
	addCmd.Flags().StringP("date", "d", "", "Expense date (YYYY-MM-DD or natural language, default today)")
	rootCmd.AddCommand(addCmd)
}
