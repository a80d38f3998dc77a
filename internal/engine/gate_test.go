package engine

import "testing"

func TestGateCanSync(t *testing.T) {
	tests := []struct {
		name         string
		online       bool
		userID       string
		forceOffline bool
		wantOK       bool
		wantReason   DenyReason
	}{
		{
			name:       "online and authenticated",
			online:     true,
			userID:     "user-1",
			wantOK:     true,
			wantReason: DenyNone,
		},
		{
			name:       "offline",
			online:     false,
			userID:     "user-1",
			wantReason: DenyOffline,
		},
		{
			name:       "online but unauthenticated",
			online:     true,
			userID:     "",
			wantReason: DenyUnauthenticated,
		},
		{
			name:       "offline and unauthenticated reports offline first",
			online:     false,
			userID:     "",
			wantReason: DenyOffline,
		},
		{
			name:         "force offline overrides connectivity",
			online:       true,
			userID:       "user-1",
			forceOffline: true,
			wantReason:   DenyOffline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate()
			g.SetOnline(tt.online)
			g.SetUser(tt.userID)
			g.SetForceOffline(tt.forceOffline)

			ok, reason := g.CanSync()
			if ok != tt.wantOK {
				t.Errorf("CanSync() ok = %v, want %v", ok, tt.wantOK)
			}
			if reason != tt.wantReason {
				t.Errorf("CanSync() reason = %v, want %v", reason, tt.wantReason)
			}
		})
	}
}

func TestGateClearUser(t *testing.T) {
	g := NewGate()
	g.SetOnline(true)
	g.SetUser("user-1")

	if ok, _ := g.CanSync(); !ok {
		t.Fatal("expected gate open after login")
	}

	g.SetUser("")
	ok, reason := g.CanSync()
	if ok {
		t.Error("expected gate closed after logout")
	}
	if reason != DenyUnauthenticated {
		t.Errorf("reason = %v, want DenyUnauthenticated", reason)
	}
}

func TestDenyReasonString(t *testing.T) {
	if got := DenyOffline.String(); got != "offline" {
		t.Errorf("DenyOffline.String() = %q", got)
	}
	if got := DenyUnauthenticated.String(); got != "unauthenticated" {
		t.Errorf("DenyUnauthenticated.String() = %q", got)
	}
}
