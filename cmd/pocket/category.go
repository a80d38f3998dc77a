package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calebmcf/pocket/internal/ledger"
	"github.com/calebmcf/pocket/internal/ui"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	GroupID: "record",
	Short:   "Manage expense categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a custom category in the local buffer",
	Long: `Create a custom category. Like expenses, categories are buffered
locally and pushed on the next sync. A category whose name already exists
remotely (any letter case) is recognized as the same category and never
duplicated.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		buf := openBuffer(cfg)
		defer buf.Close()
		seedCategories(cfg, buf, cmd)

		color, _ := cmd.Flags().GetString("color")
		icon, _ := cmd.Flags().GetString("icon")

		cat := ledger.NewCategory(args[0], color, icon)
		if err := cat.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Reject a local duplicate up front; remote duplicates are handled
		// by sync-time deduplication.
		existing, err := buf.Categories(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading categories: %v\n", err)
			os.Exit(1)
		}
		for _, e := range existing {
			if strings.EqualFold(e.Name, cat.Name) {
				fmt.Fprintf(os.Stderr, "Error: category %q already exists\n", e.Name)
				os.Exit(1)
			}
		}

		if err := buf.AddCategory(cmd.Context(), cat); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving category: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Created category %s\n", ui.RenderPass("✓"), ui.RenderAccent(cat.Name))
	},
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories in the local buffer",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		buf := openBuffer(cfg)
		defer buf.Close()
		seedCategories(cfg, buf, cmd)

		cats, err := buf.Categories(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading categories: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s Categories\n\n", ui.RenderAccent("📂"))
		for _, c := range cats {
			marker := ""
			if ledger.IsDefaultCategory(c) {
				marker = ui.RenderMuted(" (default)")
			}
			fmt.Printf("  %s %s%s\n", c.Icon, c.Name, marker)
		}
		fmt.Println()
	},
}

func init() {
	categoryAddCmd.Flags().String("color", "#AAAAAA", "Category color (hex)")
	categoryAddCmd.Flags().String("icon", "", "Category icon")
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryListCmd)
	rootCmd.AddCommand(categoryCmd)
}
