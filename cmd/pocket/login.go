package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/calebmcf/pocket/internal/config"
	"github.com/calebmcf/pocket/internal/ui"
)

var loginCmd = &cobra.Command{
	Use:     "login <user-id>",
	GroupID: "sync",
	Short:   "Store the identity and token used for sync",
	Long: `Store the user identity and remote auth token in the config file.

The token is prompted for without echo. Expenses recorded before login keep
a placeholder owner; the first sync after login claims them for this user.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if url, _ := cmd.Flags().GetString("remote-url"); url != "" {
			cfg.Remote.URL = url
		}

		fmt.Print("Auth token (leave empty to keep " + cfg.Remote.AuthTokenEnv + "): ")
		tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading token: %v\n", err)
			os.Exit(1)
		}

		cfg.Auth.UserID = args[0]
		if len(tokenBytes) > 0 {
			cfg.Remote.AuthToken = string(tokenBytes)
		}

		if err := config.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Logged in as %s\n", ui.RenderPass("✓"), ui.RenderAccent(args[0]))
		fmt.Printf("   %s\n", ui.RenderMuted("Previously buffered records will be claimed on the next sync"))
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "sync",
	Short:   "Clear the stored identity",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		cfg.Auth.UserID = ""
		cfg.Remote.AuthToken = ""
		if err := config.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Logged out\n", ui.RenderPass("✓"))
	},
}

func init() {
	loginCmd.Flags().String("remote-url", "", "Remote store URL (libsql://...)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
