// Package app composes the editing services of the console: the selected
// event session, the bundle editor, and invitation handling. It is the
// layer that routes ledger transitions into the synchronization layer.
package app

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/festfun/console/internal/console/domain/core"
	"github.com/festfun/console/internal/console/domain/quota"
	"github.com/festfun/console/internal/console/storage"
	consolesync "github.com/festfun/console/internal/console/sync"
	"github.com/festfun/console/internal/errors"
)

// Session owns the selected event and its core record during an editing
// session. Mutations merge a partial update into a new immutable snapshot
// and hand it to the synchronization layer; quota quantity and total edits
// go through a debounced write so rapid keystrokes coalesce into one
// persistence call.
type Session struct {
	syncer    *consolesync.Syncer
	debouncer *consolesync.Debouncer

	mu       stdsync.Mutex
	eventID  string
	snapshot core.Core
	loaded   bool
}

// NewSession builds a session over the syncer. debounceDelay <= 0 selects
// the default delay.
func NewSession(syncer *consolesync.Syncer, debounceDelay time.Duration) *Session {
	return &Session{
		syncer:    syncer,
		debouncer: consolesync.NewDebouncer(debounceDelay),
	}
}

// SelectEvent loads the event core and makes it the session's subject.
func (s *Session) SelectEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New(errors.CodeEventIDRequired, "no event id selected")
	}

	record, err := s.syncer.ReadCore(ctx, eventID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.New(errors.CodeEventNotFound, fmt.Sprintf("event %s not found", eventID))
		}
		return errors.Wrap(errors.CodeRemoteCallFailed, "read event core", err)
	}

	snapshot, err := decodeCore(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventID = eventID
	s.snapshot = snapshot
	s.loaded = true
	return nil
}

// EventID returns the selected event id, empty when none is selected.
func (s *Session) EventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventID
}

// Selected returns the current core snapshot of the selected event.
func (s *Session) Selected() (core.Core, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return core.Core{}, errors.New(errors.CodeEventCoreNotLoaded, "no event core loaded")
	}
	return s.snapshot, nil
}

// UpdateGeneralInfo merges new general info into the core and persists it
// immediately.
func (s *Session) UpdateGeneralInfo(ctx context.Context, name, code string, tags []string) consolesync.SaveResult {
	return s.writeMerged(ctx, func(snapshot core.Core) core.Core {
		return snapshot.WithGeneralInfo(name, code, tags)
	})
}

// UpdateVenue merges new venue info into the core and persists it
// immediately.
func (s *Session) UpdateVenue(ctx context.Context, venueName, address, city string) consolesync.SaveResult {
	return s.writeMerged(ctx, func(snapshot core.Core) core.Core {
		return snapshot.WithVenue(venueName, address, city)
	})
}

// UpdateEventDates merges a new keyed date map into the core and persists
// it immediately.
func (s *Session) UpdateEventDates(ctx context.Context, dates map[string]string) consolesync.SaveResult {
	if len(dates) == 0 {
		return consolesync.SaveResult{Err: errors.New(errors.CodeEventDatesRequired, "event dates are required")}
	}
	return s.writeMerged(ctx, func(snapshot core.Core) core.Core {
		return snapshot.WithEventDates(dates)
	})
}

// UpdateStatus merges a new event status into the core and persists it
// immediately.
func (s *Session) UpdateStatus(ctx context.Context, status core.Status) consolesync.SaveResult {
	if !status.Valid() {
		return consolesync.SaveResult{Err: errors.New(errors.CodeInvalidEventStatus,
			fmt.Sprintf("unknown event status %q", status))}
	}
	return s.writeMerged(ctx, func(snapshot core.Core) core.Core {
		return snapshot.WithStatus(status)
	})
}

// QuotaState returns the quota ledger state initialized from the current
// core snapshot.
func (s *Session) QuotaState() (quota.State, error) {
	snapshot, err := s.Selected()
	if err != nil {
		return quota.State{}, err
	}
	return quota.Reduce(quota.State{}, quota.Initialize(snapshot.QuotaList(), snapshot.Data.CoreQuotas.InvitationsLimit)), nil
}

// ApplyQuotaAction runs one quota ledger transition against the core
// snapshot and routes the write-back. Structural edits (add, delete) are
// persisted immediately; quantity and total edits are debounced, so the
// returned result reports Persisted false until the coalesced write
// fires. Initialization never writes back.
func (s *Session) ApplyQuotaAction(ctx context.Context, action quota.Action) (quota.State, consolesync.SaveResult) {
	state, err := s.QuotaState()
	if err != nil {
		return quota.State{}, consolesync.SaveResult{Err: err}
	}

	if action.Type == quota.ActionAddQuota && state.HasType(action.Quota.InvitationType) {
		return state, consolesync.SaveResult{Err: errors.New(errors.CodeQuotaTypeExists,
			fmt.Sprintf("quota type %q already exists", action.Quota.InvitationType))}
	}

	next := quota.Reduce(state, action)

	s.mu.Lock()
	s.snapshot = s.snapshot.WithQuotas(next.TotalInvitations, next.Quotas)
	snapshot := s.snapshot
	s.mu.Unlock()

	switch action.Type {
	case quota.ActionNone, quota.ActionInitialize:
		return next, consolesync.SaveResult{}
	case quota.ActionChangeQuotaQuantity, quota.ActionChangeTotal:
		s.debouncer.Call(func() {
			s.writeSnapshot(context.WithoutCancel(ctx), snapshot)
		})
		return next, consolesync.SaveResult{Persisted: false}
	default:
		return next, s.writeSnapshot(ctx, snapshot)
	}
}

// FlushQuotaWrites forces a pending debounced quota write to run now.
// Nothing calls this on teardown: a pending write is lost when the
// session ends inside the debounce window.
func (s *Session) FlushQuotaWrites() {
	s.debouncer.Flush()
}

func (s *Session) writeMerged(ctx context.Context, merge func(core.Core) core.Core) consolesync.SaveResult {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return consolesync.SaveResult{Err: errors.New(errors.CodeEventCoreNotLoaded, "no event core loaded")}
	}
	s.snapshot = merge(s.snapshot)
	snapshot := s.snapshot
	s.mu.Unlock()

	return s.writeSnapshot(ctx, snapshot)
}

func (s *Session) writeSnapshot(ctx context.Context, snapshot core.Core) consolesync.SaveResult {
	data, err := json.Marshal(snapshot.Data)
	if err != nil {
		return consolesync.SaveResult{Err: fmt.Errorf("marshal event core: %w", err)}
	}
	return s.syncer.WriteCore(ctx, storage.Record{
		EventID:   snapshot.EventID,
		Operation: storage.CoreOperation,
		Data:      data,
	})
}

func decodeCore(record storage.Record) (core.Core, error) {
	snapshot := core.Core{EventID: record.EventID, Operation: record.Operation}
	if err := json.Unmarshal(record.Data, &snapshot.Data); err != nil {
		return core.Core{}, fmt.Errorf("unmarshal event core: %w", err)
	}
	return snapshot, nil
}
