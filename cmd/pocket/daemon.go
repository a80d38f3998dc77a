package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/calebmcf/pocket/internal/bus"
	"github.com/calebmcf/pocket/internal/daemon"
	"github.com/calebmcf/pocket/internal/ui"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Run the background sync daemon (foreground)",
	Long: `Run the sync daemon in the foreground.

The daemon probes remote connectivity, watches the force-offline marker
file, and triggers a sync whenever the gate opens over pending data. Touch
the marker file to pause syncing without stopping the daemon:

  touch ~/.local/share/pocket/force-offline   # pause
  rm ~/.local/share/pocket/force-offline      # resume`,
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

		// Daemon logs rotate; console gets the high-level messages only.
		logWriter := io.Writer(os.Stderr)
		if cfg.Log.File != "" {
			logWriter = io.MultiWriter(os.Stderr, &lumberjack.Logger{
				Filename:   cfg.Log.File,
				MaxSize:    cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
			})
		}
		logger := log.New(logWriter, "[pocket] ", log.LstdFlags)

		events := bus.New()
		coord := newCoordinator(cfg, buf, store, events, logger)

		config := &daemon.Config{
			ProbeInterval:  cfg.Daemon.ProbeInterval,
			SettleDelay:    cfg.Daemon.SettleDelay,
			StatusInterval: cfg.Daemon.StatusInterval,
			Logger:         logger,
		}
		d, err := daemon.NewWithConfig(coord, buf, store, events, cfg.Daemon.MarkerPath, config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(1)
		}
		watchIdentity(d)

		fmt.Printf("%s Starting sync daemon...\n", ui.RenderAccent("🚀"))
		fmt.Printf("   Buffer: %s\n", cfg.Buffer.Path)
		fmt.Printf("   Marker: %s\n", cfg.Daemon.MarkerPath)
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
