package app

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/festfun/console/internal/console/domain/core"
	"github.com/festfun/console/internal/console/domain/quota"
	"github.com/festfun/console/internal/console/storage"
	consolesync "github.com/festfun/console/internal/console/sync"
	"github.com/festfun/console/internal/errors"
)

// Events creates and reads event core records.
type Events struct {
	syncer *consolesync.Syncer
	now    func() time.Time
}

// NewEvents builds the events service over the syncer.
func NewEvents(syncer *consolesync.Syncer) *Events {
	return &Events{syncer: syncer, now: time.Now}
}

// Create builds a DRAFT event skeleton with the default quota set and
// persists it. The store assigns the event id.
func (e *Events) Create(ctx context.Context, eventName, eventCode string) (core.Core, error) {
	if strings.TrimSpace(eventName) == "" {
		return core.Core{}, errors.New(errors.CodeEventNameRequired, "event name is required")
	}

	snapshot := core.New(eventName, eventCode, e.now())
	defaults := quota.DefaultQuotas()
	snapshot = snapshot.WithQuotas(snapshot.Data.CoreQuotas.InvitationsLimit, defaults)

	data, err := json.Marshal(snapshot.Data)
	if err != nil {
		return core.Core{}, fmt.Errorf("marshal event core: %w", err)
	}

	created, err := e.syncer.CreateCore(ctx, storage.Record{
		Operation: storage.CoreOperation,
		Data:      data,
	})
	if err != nil {
		return core.Core{}, errors.Wrap(errors.CodeRemoteCallFailed, "create event", err)
	}
	return decodeCore(created)
}

// Get returns the event core, cache-first.
func (e *Events) Get(ctx context.Context, eventID string) (core.Core, error) {
	if eventID == "" {
		return core.Core{}, errors.New(errors.CodeEventIDRequired, "no event id selected")
	}
	record, err := e.syncer.ReadCore(ctx, eventID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return core.Core{}, errors.New(errors.CodeEventNotFound, fmt.Sprintf("event %s not found", eventID))
		}
		return core.Core{}, errors.Wrap(errors.CodeRemoteCallFailed, "read event core", err)
	}
	return decodeCore(record)
}

// List returns the cores of every event the cache knows about, in the
// order they were first seen. Events never read or created in this
// process are not listed.
func (e *Events) List(ctx context.Context) ([]core.Core, error) {
	ids := e.syncer.KnownEventIDs()
	cores := make([]core.Core, 0, len(ids))
	for _, eventID := range ids {
		snapshot, err := e.Get(ctx, eventID)
		if err != nil {
			return nil, err
		}
		cores = append(cores, snapshot)
	}
	return cores, nil
}
