package engine

import "time"

// RecordKind names one syncable record collection.
type RecordKind string

const (
	RecordExpenses   RecordKind = "expenses"
	RecordCategories RecordKind = "categories"
	RecordReceipts   RecordKind = "receipts"
)

// SyncResult is produced once per run and published on the event bus.
type SyncResult struct {
	Success bool               `json:"success"`
	Counts  map[RecordKind]int `json:"countsByType"`
	Errors  []*SyncError       `json:"errors"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

func newResult(started time.Time) *SyncResult {
	return &SyncResult{
		Success:   true,
		Counts:    make(map[RecordKind]int),
		Errors:    []*SyncError{},
		StartedAt: started,
	}
}

// recordError notes a typed failure and marks the run unsuccessful.
func (r *SyncResult) recordError(record RecordKind, kind Kind, err error) {
	r.Success = false
	r.Errors = append(r.Errors, &SyncError{Record: record, Kind: kind, Err: err})
}

// kindClean reports whether no error has been recorded for the given
// record kind. Cleanup runs only for clean kinds.
func (r *SyncResult) kindClean(record RecordKind) bool {
	for _, e := range r.Errors {
		if e.Record == record {
			return false
		}
	}
	return true
}

// TotalSynced returns the number of records pushed across all kinds.
func (r *SyncResult) TotalSynced() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}
