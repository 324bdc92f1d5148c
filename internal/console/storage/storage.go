// Package storage defines the persistence contracts for event console
// records.
//
// Every persisted item is a Record keyed by (event id, operation): the
// event core, one record per sponsor bundle, and one record per
// invitation. The contracts here are implemented by the sqlite store and
// by the HTTP API client, so the console works the same against a local
// database and a remote service.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/festfun/console/internal/console/domain/invitation"
	"github.com/festfun/console/internal/id"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a record with the same key already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// CoreOperation is the operation key of the event core record.
const CoreOperation = "core"

// Record is one persisted event item keyed by (event id, operation).
type Record struct {
	EventID   string          `json:"eventId"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
}

// EventItemStore persists event item records.
type EventItemStore interface {
	// Read returns the record for the key, or ErrNotFound.
	Read(ctx context.Context, eventID, operation string) (Record, error)
	// Create stores a new record. When the record has no event id the
	// store assigns one; the canonical record is returned.
	Create(ctx context.Context, record Record) (Record, error)
	// Save upserts the record by key and returns the stored version.
	Save(ctx context.Context, record Record) (Record, error)
	// ListByEventID returns every record of the event, ordered by
	// operation.
	ListByEventID(ctx context.Context, eventID string) ([]Record, error)
}

// InvitationStore groups the invitation-specific remote operations.
type InvitationStore interface {
	// CreateInvitations creates one invitation record per contact and
	// returns the fixed-format response string listing with the assigned
	// ids.
	CreateInvitations(ctx context.Context, eventID string, contacts []invitation.Contact, template invitation.Template) (string, error)
	// UpdateInvitations applies a status change or a field update to the
	// listed invitations.
	UpdateInvitations(ctx context.Context, eventID string, ids []string, templateID string, fields map[string]string, status invitation.Status) error
	// SendInvitations stamps the listed invitations SENT.
	SendInvitations(ctx context.Context, eventID string, ids []string) error
}

// EventItemService is the full persistence service contract the
// synchronization layer consumes.
type EventItemService interface {
	EventItemStore
	InvitationStore
}

// NewEventID formats a new event id from the event name and creation time,
// in the form "EVENT#<yy>_<fragment>#<name slug>".
func NewEventID(eventName string, now time.Time) string {
	return fmt.Sprintf("EVENT#%02d_%s#%s", now.Year()%100, id.Fragment(4), id.Slug(eventName))
}

// FilterByPrefix returns the records whose operation starts with prefix,
// preserving input order.
func FilterByPrefix(records []Record, prefix string) []Record {
	filtered := make([]Record, 0, len(records))
	for _, record := range records {
		if strings.HasPrefix(record.Operation, prefix) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}
