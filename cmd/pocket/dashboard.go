package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calebmcf/pocket/internal/bus"
	"github.com/calebmcf/pocket/internal/daemon"
	"github.com/calebmcf/pocket/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "sync",
	Short:   "Run the sync daemon with a WebSocket dashboard",
	Long: `Run the sync daemon together with a WebSocket dashboard server.

Connected clients receive every sync result and periodic status snapshots:
- sync_succeeded: a run pushed its pending records cleanly
- sync_failed: a run recorded errors (per record kind)
- status: connectivity, identity, and pending counts

Example usage:
  pocket dashboard               # Default port 8321
  pocket dashboard --port 9000   # Custom port

Connect with a WebSocket client:
  ws://localhost:8321/ws`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		buf := openBuffer(cfg)
		defer buf.Close()

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

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.Dashboard.Port
		}

		logger := log.New(os.Stderr, "[pocket] ", log.LstdFlags)
		events := bus.New()
		coord := newCoordinator(cfg, buf, store, events, logger)

		server := dashboard.NewServer(events, &dashboard.Config{
			Port:   port,
			Logger: logger,
		})
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to start dashboard: %v\n", err)
			os.Exit(1)
		}

		d, err := daemon.NewWithConfig(coord, buf, store, events, cfg.Daemon.MarkerPath, &daemon.Config{
			ProbeInterval:  cfg.Daemon.ProbeInterval,
			SettleDelay:    cfg.Daemon.SettleDelay,
			StatusInterval: cfg.Daemon.StatusInterval,
			Logger:         logger,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(1)
		}
		watchIdentity(d)

		fmt.Printf("Dashboard server started on http://localhost:%d\n", port)
		fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Printf("Health check: http://localhost:%d/health\n", port)
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		daemonErr := make(chan error, 1)
		go func() { daemonErr <- d.Start(ctx) }()

		select {
		case <-ctx.Done():
		case err := <-daemonErr:
			if err != nil {
				fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			}
		}

		fmt.Println("\nShutting down dashboard server...")
		if err := server.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Dashboard server stopped")
	},
}

func init() {
	dashboardCmd.Flags().IntP("port", "p", 0, "Port to listen on (default from config)")
	rootCmd.AddCommand(dashboardCmd)
}
