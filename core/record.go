package core

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned by RecordStore.GetRecord for unknown ids.
var ErrRecordNotFound = errors.New("session record not found")

// SessionRecord is the persisted outcome of one completed practice session.
type SessionRecord struct {
	ID          string        `json:"id"`
	Transcript  Transcript    `json:"transcript"`
	ReportText  string        `json:"summary"`
	NewMemories []string      `json:"newMemories"`
	Preferences PreferenceSet `json:"preferences"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// RecordStore persists session records.
type RecordStore interface {
	SaveRecord(ctx context.Context, rec *SessionRecord) error
	GetRecord(ctx context.Context, id string) (*SessionRecord, error)
	// ListRecords returns records newest first; limit <= 0 means a store default.
	ListRecords(ctx context.Context, limit int) ([]SessionRecord, error)
}

// Credential is the short-lived authorization issued by the realtime-voice
// provisioning service. Expiry is provider asserted and never renewed here.
type Credential struct {
	Secret       string      `json:"clientSecret"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	Model        string      `json:"model"`
	Instructions string      `json:"instructions"`
	Persona      PersonaMeta `json:"personality"`
}
