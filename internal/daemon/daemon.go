// Package daemon provides the background process that drives automatic sync.
//
// The daemon:
// 1. Probes the remote store to track connectivity
// 2. Watches the force-offline marker file for manual overrides
// 3. Observes identity changes written by the login command
// 4. Triggers a sync run when the gate transitions to open with pending data
// 5. Publishes periodic status snapshots on the event bus
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/calebmcf/pocket/internal/buffer"
	"github.com/calebmcf/pocket/internal/bus"
	"github.com/calebmcf/pocket/internal/engine"
	"github.com/calebmcf/pocket/internal/remote"
)

// Config holds configuration for the daemon.
type Config struct {
	// ProbeInterval is how often to ping the remote store for connectivity.
	ProbeInterval time.Duration

	// SettleDelay is how long to wait after an offline-to-online transition
	// before triggering a sync. Flapping links settle before we push.
	SettleDelay time.Duration

	// StatusInterval is how often to publish a status snapshot.
	StatusInterval time.Duration

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ProbeInterval:  15 * time.Second,
		SettleDelay:    2 * time.Second,
		StatusInterval: 30 * time.Second,
		Logger:         log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Status is the periodic snapshot published on bus.TopicStatus.
type Status struct {
	Online            bool      `json:"online"`
	ForceOffline      bool      `json:"forceOffline"`
	UserID            string    `json:"userId,omitempty"`
	SyncInProgress    bool      `json:"syncInProgress"`
	PendingExpenses   int       `json:"pendingExpenses"`
	PendingCategories int       `json:"pendingCategories"`
	PendingReceipts   int       `json:"pendingReceipts"`
	LastSync          time.Time `json:"lastSync"`
}

// Daemon watches connectivity, identity, and the force-offline marker, and
// triggers sync runs when the gate opens over pending data.
type Daemon struct {
	coord      *engine.Coordinator
	buf        *buffer.Buffer
	store      remote.Store
	events     *bus.Bus
	markerPath string
	config     *Config

	// Set via WatchIdentity. A login performed by a separate pocket
	// process rewrites the config file; the daemon reloads the identity
	// from it instead of requiring a restart.
	identityPath string
	loadIdentity func() (string, error)

	watcher *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Daemon instance with default configuration.
//
// markerPath names the force-offline marker file; its presence forces the
// gate closed regardless of actual connectivity. Use Start() to begin.
func New(coord *engine.Coordinator, buf *buffer.Buffer, store remote.Store, events *bus.Bus, markerPath string) (*Daemon, error) {
	return NewWithConfig(coord, buf, store, events, markerPath, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(coord *engine.Coordinator, buf *buffer.Buffer, store remote.Store, events *bus.Bus, markerPath string, config *Config) (*Daemon, error) {
	if coord == nil {
		return nil, fmt.Errorf("coordinator cannot be nil")
	}
	if buf == nil {
		return nil, fmt.Errorf("buffer cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if markerPath == "" {
		return nil, fmt.Errorf("markerPath cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		coord:      coord,
		buf:        buf,
		store:      store,
		events:     events,
		markerPath: markerPath,
		config:     config,
		watcher:    watcher,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// WatchIdentity makes a running daemon observe logins and logouts performed
// by a separate pocket process.
//
// path names the file rewritten on login; load re-reads the persisted user
// id from it. Must be called before Start.
func (d *Daemon) WatchIdentity(path string, load func() (string, error)) {
	d.identityPath = path
	d.loadIdentity = load
}

// Start begins the daemon's operation.
//
// The daemon will:
// 1. Read the initial force-offline marker state
// 2. Probe connectivity on ProbeInterval
// 3. Watch the marker file and, if configured, the identity file
// 4. Publish status on StatusInterval
//
// This blocks until ctx is cancelled or an error occurs.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting sync daemon")

	d.applyMarkerState()

	// The marker's directory is watched rather than the file itself so
	// create and remove events are both observed.
	if err := d.watcher.Add(filepath.Dir(d.markerPath)); err != nil {
		return fmt.Errorf("failed to watch marker directory: %w", err)
	}

	if d.identityPath != "" {
		// The directory again, so save-and-rename writes are seen.
		if err := d.watcher.Add(filepath.Dir(d.identityPath)); err != nil {
			return fmt.Errorf("failed to watch identity directory: %w", err)
		}
		d.refreshIdentity()
	}

	// Initial probe so the gate reflects reality before the first tick.
	d.probe()

	d.wg.Add(3)
	go d.probeLoop()
	go d.watchFiles()
	go d.statusLoop()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping sync daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Sync daemon stopped")
	return nil
}

// probeLoop pings the remote store on each tick and maintains the gate's
// online flag. An offline-to-online transition schedules a sync after the
// settle delay.
func (d *Daemon) probeLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.probe()
		}
	}
}

// probe performs one connectivity check and reacts to transitions.
func (d *Daemon) probe() {
	gate := d.coord.Gate()
	wasOnline := gate.Online()

	ctx, cancel := context.WithTimeout(d.ctx, d.config.ProbeInterval)
	err := d.store.Ping(ctx)
	cancel()

	online := err == nil
	gate.SetOnline(online)

	switch {
	case online && !wasOnline:
		d.config.Logger.Println("Connectivity restored")
		d.scheduleSync()
	case !online && wasOnline:
		d.config.Logger.Printf("Connectivity lost: %v", err)
	}
}

// NotifyLogin records a fresh identity on the gate and, if the gate is now
// open, schedules a sync for any data buffered while logged out.
func (d *Daemon) NotifyLogin(userID string) {
	d.coord.Gate().SetUser(userID)
	d.config.Logger.Printf("User %s logged in", userID)
	d.scheduleSync()
}

// NotifyLogout clears the identity; the gate closes until the next login.
func (d *Daemon) NotifyLogout() {
	d.coord.Gate().SetUser("")
	d.config.Logger.Println("User logged out")
}

// scheduleSync triggers a run after the settle delay, but only when the
// gate permits and pending data exists. Redundant triggers are absorbed by
// the coordinator's single-flight guard.
func (d *Daemon) scheduleSync() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		select {
		case <-d.ctx.Done():
			return
		case <-time.After(d.config.SettleDelay):
		}

		if ok, reason := d.coord.Gate().CanSync(); !ok {
			d.config.Logger.Printf("Skipping scheduled sync: %s", reason)
			return
		}
		pending, err := d.coord.HasUnsyncedData(d.ctx)
		if err != nil {
			d.config.Logger.Printf("Failed to check pending data: %v", err)
			return
		}
		if !pending {
			return
		}
		d.coord.TriggerSync(d.ctx)
	}()
}

// watchFiles reacts to the force-offline marker appearing and disappearing,
// and to rewrites of the identity file.
func (d *Daemon) watchFiles() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			switch event.Name {
			case d.markerPath:
				d.onMarkerEvent()
			case d.identityPath:
				d.refreshIdentity()
			}

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// onMarkerEvent re-reads the marker state and reacts to transitions.
func (d *Daemon) onMarkerEvent() {
	wasForced := d.coord.Gate().ForceOffline()
	d.applyMarkerState()
	forced := d.coord.Gate().ForceOffline()
	if wasForced && !forced {
		d.config.Logger.Println("Force-offline marker removed")
		d.scheduleSync()
	} else if !wasForced && forced {
		d.config.Logger.Println("Force-offline marker present, sync disabled")
	}
}

// refreshIdentity reloads the persisted identity and applies transitions to
// the gate. A fresh login schedules a sync for data buffered while logged
// out; a logout closes the gate until the next one.
func (d *Daemon) refreshIdentity() {
	userID, err := d.loadIdentity()
	if err != nil {
		d.config.Logger.Printf("Failed to reload identity: %v", err)
		return
	}
	current := d.coord.Gate().UserID()
	switch {
	case userID != "" && userID != current:
		d.NotifyLogin(userID)
	case userID == "" && current != "":
		d.NotifyLogout()
	}
}

// applyMarkerState sets the gate's force-offline flag from the marker
// file's existence.
func (d *Daemon) applyMarkerState() {
	_, err := os.Stat(d.markerPath)
	d.coord.Gate().SetForceOffline(err == nil)
}

// statusLoop publishes a Status snapshot on each tick.
func (d *Daemon) statusLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.publishStatus()
		}
	}
}

// publishStatus assembles and broadcasts the current Status.
func (d *Daemon) publishStatus() {
	gate := d.coord.Gate()
	status := &Status{
		Online:         gate.Online(),
		ForceOffline:   gate.ForceOffline(),
		UserID:         gate.UserID(),
		SyncInProgress: d.coord.InProgress(),
	}

	exp, cats, recs, err := d.buf.PendingCounts(d.ctx)
	if err != nil {
		d.config.Logger.Printf("Failed to read pending counts: %v", err)
	} else {
		status.PendingExpenses = exp
		status.PendingCategories = cats
		status.PendingReceipts = recs
	}

	if last, err := d.coord.LastSyncTime(d.ctx); err == nil {
		status.LastSync = last
	}

	d.events.Publish(bus.TopicStatus, status)
}
