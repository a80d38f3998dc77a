package engine

import "sync"

// DenyReason explains why the gate refused a sync attempt.
type DenyReason int

const (
	DenyNone DenyReason = iota
	DenyOffline
	DenyUnauthenticated
)

func (r DenyReason) String() string {
	switch r {
	case DenyNone:
		return "permitted"
	case DenyOffline:
		return "offline"
	case DenyUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Gate evaluates whether a sync attempt is currently permitted.
//
// It holds three externally-driven signals: the connectivity signal, the
// authenticated user identity, and a caller-settable force-offline override
// that is honored even when physically online. The gate is consulted once
// at the start of every run; downstream components assume it passed.
type Gate struct {
	mu           sync.Mutex
	online       bool
	userID       string
	forceOffline bool
}

// NewGate creates a gate with both signals down.
func NewGate() *Gate {
	return &Gate{}
}

// SetOnline records the connectivity signal.
func (g *Gate) SetOnline(online bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.online = online
}

// Online reports the current connectivity signal.
func (g *Gate) Online() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.online
}

// SetUser records the authenticated identity. An empty id clears it.
func (g *Gate) SetUser(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.userID = userID
}

// UserID returns the authenticated identity, or "" when unauthenticated.
func (g *Gate) UserID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.userID
}

// SetForceOffline sets or clears the user-forced offline override.
func (g *Gate) SetForceOffline(force bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forceOffline = force
}

// ForceOffline reports whether offline mode is forced.
func (g *Gate) ForceOffline() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.forceOffline
}

// CanSync reports whether a sync attempt is permitted right now.
// Connectivity is checked before identity, so a forced-offline caller sees
// DenyOffline even when unauthenticated as well.
func (g *Gate) CanSync() (bool, DenyReason) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.online || g.forceOffline {
		return false, DenyOffline
	}
	if g.userID == "" {
		return false, DenyUnauthenticated
	}
	return true, DenyNone
}
