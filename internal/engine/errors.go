package engine

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAlreadyInProgress is returned when a sync is requested while a run is
// already active. The call fails immediately; there is no queuing and no
// state change, and nothing is published.
var ErrAlreadyInProgress = errors.New("sync already in progress")

// Kind is the closed enumeration of sync failure kinds. Callers switch on
// it exhaustively instead of string-matching messages.
type Kind int

const (
	// KindAlreadyInProgress: a run was requested while one was active.
	// Surfaces as ErrAlreadyInProgress; no result is produced.
	KindAlreadyInProgress Kind = iota

	// KindOffline: the connectivity signal is down or offline mode is
	// forced. The run aborts before any network I/O.
	KindOffline

	// KindAuthRequired: no user identity is established. The run aborts
	// before any network I/O.
	KindAuthRequired

	// KindRemoteQuery: the remote identity projection failed for one record
	// kind. That kind is skipped and counted as zero; other kinds proceed.
	KindRemoteQuery

	// KindRemoteWrite: the batch insert failed for one record kind. The
	// whole batch counts as zero synced and the local buffer for that kind
	// is left untouched; other kinds proceed.
	KindRemoteWrite

	// KindStorage: a local buffer read or write failed. Aborts only the
	// affected kind's step.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyInProgress:
		return "already in progress"
	case KindOffline:
		return "offline"
	case KindAuthRequired:
		return "authentication required"
	case KindRemoteQuery:
		return "remote query failure"
	case KindRemoteWrite:
		return "remote write failure"
	case KindStorage:
		return "storage error"
	default:
		return fmt.Sprintf("unknown kind %d", int(k))
	}
}

// SyncError is one typed failure recorded during a run.
type SyncError struct {
	Record RecordKind // affected record kind; empty for run-level failures
	Kind   Kind
	Err    error
}

func (e *SyncError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s sync failed (%s): %v", e.Record, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// MarshalJSON renders the completion-notification shape: {type, message}.
func (e *SyncError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{
		Type:    string(e.Record),
		Message: e.Error(),
	})
}
