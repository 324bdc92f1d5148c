// Package sync bridges ledger transitions to the persistence service.
//
// Writes are optimistic: the in-memory cache is updated first and a failed
// remote call never rolls it back. The caller receives a SaveResult whose
// Persisted flag tells whether the remote write landed, so the UI can show
// "failed to save" without reverting local edits. Bundle deletes are
// local-only; the remote record is left stale on purpose. Reads are
// cache-first and cache entries are never invalidated while the process
// lives.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/festfun/console/internal/console/cache"
	"github.com/festfun/console/internal/console/domain/bundle"
	"github.com/festfun/console/internal/console/domain/invitation"
	"github.com/festfun/console/internal/console/storage"
	"github.com/festfun/console/internal/errors"
	"github.com/festfun/console/internal/telemetry"
)

// SaveResult reports the outcome of an optimistic write. The local state
// is always applied; Persisted tells whether the remote call succeeded.
type SaveResult struct {
	Persisted bool
	Err       error
}

// Syncer routes ledger actions to persistence calls and keeps the cache
// consistent with what it saw last.
type Syncer struct {
	service storage.EventItemService
	cache   *cache.Cache
	emitter *telemetry.Emitter
	tracer  trace.Tracer
}

// NewSyncer builds a syncer over the persistence service. The emitter may
// be nil.
func NewSyncer(service storage.EventItemService, recordCache *cache.Cache, emitter *telemetry.Emitter) *Syncer {
	return &Syncer{
		service: service,
		cache:   recordCache,
		emitter: emitter,
		tracer:  otel.Tracer("console/sync"),
	}
}

// ReadCore returns the event core record, serving from cache when
// possible.
func (s *Syncer) ReadCore(ctx context.Context, eventID string) (storage.Record, error) {
	if record, ok := s.cache.Core(eventID); ok {
		return record, nil
	}

	ctx, span := s.tracer.Start(ctx, "sync.read_core")
	defer span.End()

	record, err := s.service.Read(ctx, eventID, storage.CoreOperation)
	if err != nil {
		return storage.Record{}, err
	}
	s.cache.Put(record)
	return record, nil
}

// KnownEventIDs returns the ids of every event with a cached core
// record, in first-seen order.
func (s *Syncer) KnownEventIDs() []string {
	return s.cache.EventIDs()
}

// CreateCore creates the event core record remotely and caches the
// canonical version with its assigned event id.
func (s *Syncer) CreateCore(ctx context.Context, record storage.Record) (storage.Record, error) {
	ctx, span := s.tracer.Start(ctx, "sync.create_core")
	defer span.End()

	created, err := s.service.Create(ctx, record)
	if err != nil {
		s.emitFailure(ctx, record.EventID, "core.create_failed", err)
		return storage.Record{}, err
	}
	s.cache.Put(created)
	return created, nil
}

// WriteCore applies the core record locally, then persists it. A failed
// remote write leaves the cached record in place.
func (s *Syncer) WriteCore(ctx context.Context, record storage.Record) SaveResult {
	s.cache.Put(record)

	ctx, span := s.tracer.Start(ctx, "sync.write_core")
	defer span.End()

	saved, err := s.service.Save(ctx, record)
	if err != nil {
		s.emitFailure(ctx, record.EventID, "core.save_failed", err)
		return SaveResult{Persisted: false, Err: errors.Wrap(errors.CodeRemoteCallFailed, "save event core", err)}
	}
	s.cache.Put(saved)
	return SaveResult{Persisted: true}
}

// CreateBundle applies the bundle record locally, then issues the remote
// create. The server-returned canonical record replaces the cached one on
// success.
func (s *Syncer) CreateBundle(ctx context.Context, record storage.Record) SaveResult {
	s.cache.Put(record)

	ctx, span := s.tracer.Start(ctx, "sync.create_bundle")
	defer span.End()

	created, err := s.service.Create(ctx, record)
	if err != nil {
		s.emitFailure(ctx, record.EventID, "bundle.create_failed", err)
		return SaveResult{Persisted: false, Err: errors.Wrap(errors.CodeRemoteCallFailed, "create bundle", err)}
	}
	s.cache.Put(created)
	return SaveResult{Persisted: true}
}

// SaveBundle applies the bundle record locally, then issues the remote
// save.
func (s *Syncer) SaveBundle(ctx context.Context, record storage.Record) SaveResult {
	s.cache.Put(record)

	ctx, span := s.tracer.Start(ctx, "sync.save_bundle")
	defer span.End()

	saved, err := s.service.Save(ctx, record)
	if err != nil {
		s.emitFailure(ctx, record.EventID, "bundle.save_failed", err)
		return SaveResult{Persisted: false, Err: errors.Wrap(errors.CodeRemoteCallFailed, "save bundle", err)}
	}
	s.cache.Put(saved)
	return SaveResult{Persisted: true}
}

// DeleteBundle removes the bundle from the local cache only. No remote
// delete is issued; the persisted record stays behind.
func (s *Syncer) DeleteBundle(eventID, bundleID string) {
	s.cache.Remove(eventID, bundleID)
}

// ListBundles returns the event's bundle records, listing remotely only
// when the event's bundles were never listed before.
func (s *Syncer) ListBundles(ctx context.Context, eventID string) ([]storage.Record, error) {
	if s.cache.HasBundleIndex(eventID) {
		return s.cache.Bundles(eventID), nil
	}

	ctx, span := s.tracer.Start(ctx, "sync.list_bundles")
	defer span.End()

	records, err := s.service.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeRemoteCallFailed, "list bundles", err)
	}
	bundles := storage.FilterByPrefix(records, bundle.OperationPrefix)
	for _, record := range bundles {
		s.cache.Put(record)
	}
	s.cache.MarkBundlesListed(eventID)
	return bundles, nil
}

// ListInvitations returns the event's invitation records, cache-first.
func (s *Syncer) ListInvitations(ctx context.Context, eventID string) ([]storage.Record, error) {
	if s.cache.HasInvitationIndex(eventID) {
		return s.cache.Invitations(eventID), nil
	}

	ctx, span := s.tracer.Start(ctx, "sync.list_invitations")
	defer span.End()

	records, err := s.service.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeRemoteCallFailed, "list invitations", err)
	}
	invitations := storage.FilterByPrefix(records, invitation.OperationPrefix)
	for _, record := range invitations {
		s.cache.Put(record)
	}
	s.cache.MarkInvitationsListed(eventID)
	return invitations, nil
}

// CreateInvitations creates one invitation per contact remotely, parses
// the assigned ids out of the response, and caches the created records.
func (s *Syncer) CreateInvitations(ctx context.Context, eventID string, contacts []invitation.Contact, template invitation.Template) ([]storage.Record, error) {
	ctx, span := s.tracer.Start(ctx, "sync.create_invitations")
	defer span.End()

	response, err := s.service.CreateInvitations(ctx, eventID, contacts, template)
	if err != nil {
		s.emitFailure(ctx, eventID, "invitation.create_failed", err)
		return nil, errors.Wrap(errors.CodeRemoteCallFailed, "create invitations", err)
	}

	ids := invitation.ExtractIDs(response)
	if len(ids) == 0 {
		return nil, errors.New(errors.CodeInvalidResponse,
			fmt.Sprintf("create invitations returned an unparseable response: %q", response))
	}

	records := make([]storage.Record, 0, len(ids))
	for _, invitationID := range ids {
		record, err := s.service.Read(ctx, eventID, invitationID)
		if err != nil {
			return nil, errors.Wrap(errors.CodeRemoteCallFailed, "read created invitation", err)
		}
		s.cache.Put(record)
		records = append(records, record)
	}
	return records, nil
}

// UpdateInvitationStatus applies a bulk status change. SENT and CREATED
// are rejected before any remote call: the generic path only reaches the
// terminal states. On success the cached records are restamped locally.
func (s *Syncer) UpdateInvitationStatus(ctx context.Context, eventID string, ids []string, status invitation.Status) SaveResult {
	switch status {
	case invitation.StatusApproved, invitation.StatusRevoked:
	default:
		log.Printf("rejected status change to %q for event %s: only APPROVED and REVOKED are reachable", status, eventID)
		return SaveResult{Persisted: false, Err: errors.New(errors.CodeStatusNotReachable,
			fmt.Sprintf("status %q is not reachable through a status change", status))}
	}

	ctx, span := s.tracer.Start(ctx, "sync.update_invitation_status")
	defer span.End()

	if err := s.service.UpdateInvitations(ctx, eventID, ids, "", nil, status); err != nil {
		s.emitFailure(ctx, eventID, "invitation.update_failed", err)
		return SaveResult{Persisted: false, Err: errors.Wrap(errors.CodeRemoteCallFailed, "update invitations", err)}
	}

	s.restampCached(eventID, ids, status)
	return SaveResult{Persisted: true}
}

// SendInvitations issues the dedicated send operation and stamps the
// cached records SENT.
func (s *Syncer) SendInvitations(ctx context.Context, eventID string, ids []string) SaveResult {
	ctx, span := s.tracer.Start(ctx, "sync.send_invitations")
	defer span.End()

	if err := s.service.SendInvitations(ctx, eventID, ids); err != nil {
		s.emitFailure(ctx, eventID, "invitation.send_failed", err)
		return SaveResult{Persisted: false, Err: errors.Wrap(errors.CodeRemoteCallFailed, "send invitations", err)}
	}

	s.restampCached(eventID, ids, invitation.StatusSent)
	return SaveResult{Persisted: true}
}

func (s *Syncer) restampCached(eventID string, ids []string, status invitation.Status) {
	for _, invitationID := range ids {
		record, ok := s.cache.Get(eventID, invitationID)
		if !ok {
			continue
		}
		var payload invitation.Payload
		if err := json.Unmarshal(record.Data, &payload); err != nil {
			continue
		}
		payload.Status.CurrentStatus = status
		data, err := json.Marshal(payload)
		if err != nil {
			continue
		}
		record.Data = data
		s.cache.Put(record)
	}
}

func (s *Syncer) emitFailure(ctx context.Context, eventID, name string, cause error) {
	log.Printf("%s: event %s: %v", name, eventID, cause)
	if err := s.emitter.Emit(ctx, telemetry.Event{
		Severity: telemetry.SeverityError,
		Source:   "sync",
		Name:     name,
		EventID:  eventID,
		Detail:   cause.Error(),
	}); err != nil {
		log.Printf("emit telemetry: %v", err)
	}
}
