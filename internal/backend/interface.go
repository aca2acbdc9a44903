package backend

import (
	"context"
	"time"

	"vendas/internal/source"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the record source and what the caller needs to
// keep it fresh. Upstream and Snapshot are set only for snapshot backends.
type BackendResult struct {
	Source source.RecordSource

	// Upstream is where a snapshot backend copies its data from.
	Upstream source.RecordSource
	Snapshot source.SnapshotWriter

	// Ping reports readiness; nil means always ready.
	Ping func(ctx context.Context) error
	// LastRefresh reports the age and size of the snapshot.
	LastRefresh func(ctx context.Context) (time.Time, int, error)
	Cleanup     CleanupFunc
}

// HasSnapshot reports whether the backend serves a refreshable copy.
func (r *BackendResult) HasSnapshot() bool {
	return r.Upstream != nil && r.Snapshot != nil
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Products API, also the upstream of the sqlite snapshot
	APIURL      string
	HTTPTimeout time.Duration

	// SQLite specific; empty keeps the snapshot in memory
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory backend specific
	DataFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	APIBackend    BackendType = "api"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case APIBackend, SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
