// Package sqlite provides a SQLite-backed event item storage
// implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/festfun/console/internal/console/domain/invitation"
	"github.com/festfun/console/internal/console/storage"
	"github.com/festfun/console/internal/console/storage/sqlite/migrations"
	sqlitemigrate "github.com/festfun/console/internal/platform/storage/sqlitemigrate"
	"github.com/festfun/console/internal/telemetry"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists event item records in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite event item store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Read returns the record for (event id, operation).
func (s *Store) Read(ctx context.Context, eventID, operation string) (storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return storage.Record{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Record{}, fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	operation = strings.TrimSpace(operation)
	if eventID == "" {
		return storage.Record{}, fmt.Errorf("event id is required")
	}
	if operation == "" {
		return storage.Record{}, fmt.Errorf("operation is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT event_id, operation, data
		   FROM event_items
		  WHERE event_id = ? AND operation = ?`,
		eventID,
		operation,
	)

	var record storage.Record
	var data string
	if err := row.Scan(&record.EventID, &record.Operation, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Record{}, storage.ErrNotFound
		}
		return storage.Record{}, fmt.Errorf("read event item: %w", err)
	}
	record.Data = json.RawMessage(data)
	return record, nil
}

// Create inserts a new record. A record without an event id gets one
// assigned from the event name inside its payload.
func (s *Store) Create(ctx context.Context, record storage.Record) (storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return storage.Record{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Record{}, fmt.Errorf("storage is not configured")
	}
	record.Operation = strings.TrimSpace(record.Operation)
	if record.Operation == "" {
		return storage.Record{}, fmt.Errorf("operation is required")
	}
	if len(record.Data) == 0 {
		record.Data = json.RawMessage(`{}`)
	}
	record.EventID = strings.TrimSpace(record.EventID)
	if record.EventID == "" {
		name, err := eventName(record.Data)
		if err != nil {
			return storage.Record{}, err
		}
		record.EventID = storage.NewEventID(name, s.now())
	}

	timestamp := toMillis(s.now())
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO event_items (event_id, operation, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		record.EventID,
		record.Operation,
		string(record.Data),
		timestamp,
		timestamp,
	)
	if err != nil {
		if isEventItemUniqueViolation(err) {
			return storage.Record{}, storage.ErrAlreadyExists
		}
		return storage.Record{}, fmt.Errorf("create event item: %w", err)
	}
	return record, nil
}

// Save upserts the record by (event id, operation).
func (s *Store) Save(ctx context.Context, record storage.Record) (storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return storage.Record{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Record{}, fmt.Errorf("storage is not configured")
	}
	record.EventID = strings.TrimSpace(record.EventID)
	record.Operation = strings.TrimSpace(record.Operation)
	if record.EventID == "" {
		return storage.Record{}, fmt.Errorf("event id is required")
	}
	if record.Operation == "" {
		return storage.Record{}, fmt.Errorf("operation is required")
	}
	if len(record.Data) == 0 {
		record.Data = json.RawMessage(`{}`)
	}

	timestamp := toMillis(s.now())
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO event_items (event_id, operation, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (event_id, operation) DO UPDATE SET
		   data = excluded.data,
		   updated_at = excluded.updated_at`,
		record.EventID,
		record.Operation,
		string(record.Data),
		timestamp,
		timestamp,
	)
	if err != nil {
		return storage.Record{}, fmt.Errorf("save event item: %w", err)
	}
	return record, nil
}

// ListByEventID returns every record of the event ordered by operation.
func (s *Store) ListByEventID(ctx context.Context, eventID string) ([]storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT event_id, operation, data
		   FROM event_items
		  WHERE event_id = ?
		  ORDER BY operation ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list event items: %w", err)
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		var record storage.Record
		var data string
		if err := rows.Scan(&record.EventID, &record.Operation, &data); err != nil {
			return nil, fmt.Errorf("scan event item: %w", err)
		}
		record.Data = json.RawMessage(data)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list event items: %w", err)
	}
	return records, nil
}

// CreateInvitations creates one invitation record per contact with
// sequentially assigned operation ids and returns the fixed-format
// response string listing them.
func (s *Store) CreateInvitations(ctx context.Context, eventID string, contacts []invitation.Contact, template invitation.Template) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return "", fmt.Errorf("event id is required")
	}
	if len(contacts) == 0 {
		return "", fmt.Errorf("contacts are required")
	}

	start := s.now()
	startIndex, err := s.invitationCount(ctx, eventID)
	if err != nil {
		return "", err
	}

	ids := make([]string, 0, len(contacts))
	for i, contact := range contacts {
		operation := invitation.NewOperation(startIndex + i + 1)
		inv := invitation.New(contact, template, "admin", s.now())
		inv.EventID = eventID
		inv.Operation = operation
		inv.Data.Code = invitation.NewCode(eventID, operation)

		data, err := json.Marshal(inv.Data)
		if err != nil {
			return "", fmt.Errorf("marshal invitation: %w", err)
		}
		if _, err := s.Create(ctx, storage.Record{
			EventID:   eventID,
			Operation: operation,
			Data:      data,
		}); err != nil {
			return "", fmt.Errorf("create invitation %s: %w", operation, err)
		}
		ids = append(ids, operation)
	}

	return invitation.FormatCreateResponse(ids, s.now().Sub(start)), nil
}

// UpdateInvitations applies a status change or a field update to the
// listed invitations. A non-empty status approves or revokes; otherwise
// the contact fields and template are rewritten.
func (s *Store) UpdateInvitations(ctx context.Context, eventID string, ids []string, templateID string, fields map[string]string, status invitation.Status) error {
	if len(ids) == 0 {
		return fmt.Errorf("invitation ids are required")
	}
	for _, invitationID := range ids {
		inv, err := s.readInvitation(ctx, eventID, invitationID)
		if err != nil {
			return err
		}

		if status != "" {
			inv, err = invitation.ChangeStatus(inv, status, "admin", "FORM-ADMIN", s.now())
			if err != nil {
				return err
			}
		} else {
			if name, ok := fields["name"]; ok {
				inv.Data.Contact.Name = name
			}
			if email, ok := fields["email"]; ok {
				inv.Data.Contact.Email = email
			}
			if invitationType, ok := fields["invitationType"]; ok {
				inv.Data.Contact.InvitationType = invitationType
				inv.Data.Upload.InvitationType = invitationType
			}
			if templateID != "" {
				inv.Data.Template.TemplateID = templateID
			}
			inv.Data.Upload.UploadTimestamp = s.now().UTC().Format(time.RFC3339)
			inv.Data.Status.LastModified = inv.Data.Upload.UploadTimestamp
		}

		if err := s.saveInvitation(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

// SendInvitations stamps the listed invitations SENT.
func (s *Store) SendInvitations(ctx context.Context, eventID string, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("invitation ids are required")
	}
	for _, invitationID := range ids {
		inv, err := s.readInvitation(ctx, eventID, invitationID)
		if err != nil {
			return err
		}
		inv = invitation.MarkSent(inv, "admin", s.now())
		if err := s.saveInvitation(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

// AppendTelemetryEvent records one telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt telemetry.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	timestamp := evt.Timestamp
	if timestamp.IsZero() {
		timestamp = s.now()
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO telemetry_events (timestamp, severity, source, name, event_id, detail)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		toMillis(timestamp),
		string(evt.Severity),
		evt.Source,
		evt.Name,
		evt.EventID,
		evt.Detail,
	)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}

func (s *Store) readInvitation(ctx context.Context, eventID, invitationID string) (invitation.Invitation, error) {
	record, err := s.Read(ctx, eventID, invitationID)
	if err != nil {
		return invitation.Invitation{}, err
	}
	inv := invitation.Invitation{EventID: record.EventID, Operation: record.Operation}
	if err := json.Unmarshal(record.Data, &inv.Data); err != nil {
		return invitation.Invitation{}, fmt.Errorf("unmarshal invitation %s: %w", invitationID, err)
	}
	return inv, nil
}

func (s *Store) saveInvitation(ctx context.Context, inv invitation.Invitation) error {
	data, err := json.Marshal(inv.Data)
	if err != nil {
		return fmt.Errorf("marshal invitation %s: %w", inv.Operation, err)
	}
	_, err = s.Save(ctx, storage.Record{
		EventID:   inv.EventID,
		Operation: inv.Operation,
		Data:      data,
	})
	return err
}

func (s *Store) invitationCount(ctx context.Context, eventID string) (int, error) {
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM event_items
		  WHERE event_id = ? AND operation LIKE ?`,
		eventID,
		invitation.OperationPrefix+"#%",
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count invitations: %w", err)
	}
	return count, nil
}

func eventName(data json.RawMessage) (string, error) {
	var payload struct {
		CoreData struct {
			GeneralData struct {
				EventName string `json:"eventName"`
			} `json:"generalData"`
		} `json:"coreData"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("unmarshal core payload: %w", err)
	}
	if strings.TrimSpace(payload.CoreData.GeneralData.EventName) == "" {
		return "", fmt.Errorf("event name is required to assign an event id")
	}
	return payload.CoreData.GeneralData.EventName, nil
}

func isEventItemUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "event_items")
}
