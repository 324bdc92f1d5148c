package app

import (
	"context"
	"encoding/json"
	"fmt"
	stdsync "sync"

	"github.com/festfun/console/internal/console/domain/bundle"
	"github.com/festfun/console/internal/console/storage"
	consolesync "github.com/festfun/console/internal/console/sync"
	"github.com/festfun/console/internal/errors"
)

// Bundles drives the bundle allocation ledger for the selected event and
// routes its transitions into the synchronization layer: create and
// update write through immediately, delete is local-only.
type Bundles struct {
	session *Session
	syncer  *consolesync.Syncer

	mu     stdsync.Mutex
	state  bundle.State
	loaded string // event id the ledger was loaded for
}

// NewBundles builds the bundle service bound to the session's selected
// event.
func NewBundles(session *Session, syncer *consolesync.Syncer) *Bundles {
	return &Bundles{session: session, syncer: syncer}
}

// Load initializes the ledger from the persisted bundles of the selected
// event. Reloading for the same event serves the in-memory ledger.
func (b *Bundles) Load(ctx context.Context) (bundle.State, error) {
	snapshot, err := b.session.Selected()
	if err != nil {
		return bundle.State{}, err
	}

	b.mu.Lock()
	if b.loaded == snapshot.EventID {
		state := b.state
		b.mu.Unlock()
		return state, nil
	}
	b.mu.Unlock()

	records, err := b.syncer.ListBundles(ctx, snapshot.EventID)
	if err != nil {
		return bundle.State{}, err
	}

	colors := make(map[string]string)
	for _, quota := range snapshot.QuotaList() {
		colors[quota.InvitationType] = quota.Color
	}

	bundles := make([]bundle.Bundle, 0, len(records))
	for _, record := range records {
		var payload bundle.Payload
		if err := json.Unmarshal(record.Data, &payload); err != nil {
			return bundle.State{}, fmt.Errorf("unmarshal bundle %s: %w", record.Operation, err)
		}
		bundles = append(bundles, bundle.FromPayload(record.Operation, payload, colors))
	}

	available := bundle.BuildAvailable(snapshot.QuotaList(), bundles)
	state := bundle.Reduce(bundle.State{}, bundle.Initialize(available, bundles))

	b.mu.Lock()
	b.state = state
	b.loaded = snapshot.EventID
	b.mu.Unlock()
	return state, nil
}

// State returns the current ledger state.
func (b *Bundles) State() bundle.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Create appends a new bundle to the ledger and issues the remote create.
// The returned bundle carries its assigned id. A failed remote call
// leaves the ledger transition in place.
func (b *Bundles) Create(ctx context.Context, newBundle bundle.Bundle) (bundle.Bundle, consolesync.SaveResult) {
	eventID := b.session.EventID()
	if eventID == "" {
		return bundle.Bundle{}, consolesync.SaveResult{Err: errors.New(errors.CodeEventIDRequired, "no event id selected")}
	}

	b.mu.Lock()
	b.state = bundle.Reduce(b.state, bundle.Create(newBundle))
	created := b.state.LastBundle
	b.mu.Unlock()

	record, err := bundleRecord(eventID, created)
	if err != nil {
		return created, consolesync.SaveResult{Err: err}
	}
	return created, b.syncer.CreateBundle(ctx, record)
}

// Update replaces an existing bundle and issues the remote save. An
// unknown id leaves the ledger untouched and reports a not-found error.
func (b *Bundles) Update(ctx context.Context, updated bundle.Bundle) consolesync.SaveResult {
	eventID := b.session.EventID()
	if eventID == "" {
		return consolesync.SaveResult{Err: errors.New(errors.CodeEventIDRequired, "no event id selected")}
	}

	b.mu.Lock()
	if !b.hasBundle(updated.ID) {
		b.mu.Unlock()
		return consolesync.SaveResult{Err: errors.New(errors.CodeBundleNotFound,
			fmt.Sprintf("bundle %s not found", updated.ID))}
	}
	b.state = bundle.Reduce(b.state, bundle.Update(updated))
	saved := b.state.LastBundle
	b.mu.Unlock()

	record, err := bundleRecord(eventID, saved)
	if err != nil {
		return consolesync.SaveResult{Err: err}
	}
	return b.syncer.SaveBundle(ctx, record)
}

// Delete removes a bundle from the ledger and the local cache. No remote
// delete is issued.
func (b *Bundles) Delete(bundleID string) error {
	eventID := b.session.EventID()
	if eventID == "" {
		return errors.New(errors.CodeEventIDRequired, "no event id selected")
	}

	b.mu.Lock()
	if !b.hasBundle(bundleID) {
		b.mu.Unlock()
		return errors.New(errors.CodeBundleNotFound, fmt.Sprintf("bundle %s not found", bundleID))
	}
	b.state = bundle.Reduce(b.state, bundle.Delete(bundleID))
	b.mu.Unlock()

	b.syncer.DeleteBundle(eventID, bundleID)
	return nil
}

// hasBundle reports whether the ledger holds the bundle. Callers must
// hold the mutex.
func (b *Bundles) hasBundle(bundleID string) bool {
	for _, item := range b.state.Bundles {
		if item.ID == bundleID {
			return true
		}
	}
	return false
}

func bundleRecord(eventID string, b bundle.Bundle) (storage.Record, error) {
	data, err := json.Marshal(bundle.ToPayload(b))
	if err != nil {
		return storage.Record{}, fmt.Errorf("marshal bundle %s: %w", b.ID, err)
	}
	return storage.Record{
		EventID:   eventID,
		Operation: b.ID,
		Data:      data,
	}, nil
}
