// Package cache keeps event records in memory between persistence calls.
//
// Keys follow the console convention: "{eventId}#core" for the event core,
// "{eventId}#{operation}" for bundles and invitations, plus one index list
// per event ("{eventId}BundleKeys", "{eventId}InvitationKeys") naming
// the operations currently cached. Entries are appended on every
// successful read or write and never expire; the only removal paths are
// the explicit per-record and per-event ones. Until the process restarts
// a cached record is the source of truth.
package cache

import (
	"strings"
	"sync"

	"github.com/festfun/console/internal/console/domain/bundle"
	"github.com/festfun/console/internal/console/domain/invitation"
	"github.com/festfun/console/internal/console/storage"
)

// EventKeysIndex names the index list of cached event ids.
const EventKeysIndex = "EventKeys"

// Cache is a concurrency-safe in-memory record store.
type Cache struct {
	mu      sync.RWMutex
	records map[string]storage.Record
	indexes map[string][]string
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		records: make(map[string]storage.Record),
		indexes: make(map[string][]string),
	}
}

// CoreKey returns the cache key of an event's core record.
func CoreKey(eventID string) string {
	return eventID + "#" + storage.CoreOperation
}

// RecordKey returns the cache key of an event's record by operation.
func RecordKey(eventID, operation string) string {
	return eventID + "#" + operation
}

// BundleKeysIndex returns the index list key for an event's bundles.
func BundleKeysIndex(eventID string) string {
	return eventID + "BundleKeys"
}

// InvitationKeysIndex returns the index list key for an event's
// invitations.
func InvitationKeysIndex(eventID string) string {
	return eventID + "InvitationKeys"
}

// Put stores a record and appends its operation to the matching index
// list. The core record and unknown operations are not indexed.
func (c *Cache) Put(record storage.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := RecordKey(record.EventID, record.Operation)
	c.records[key] = record

	switch {
	case record.Operation == storage.CoreOperation:
		c.appendIndex(EventKeysIndex, record.EventID)
	case strings.HasPrefix(record.Operation, bundle.OperationPrefix):
		c.appendIndex(BundleKeysIndex(record.EventID), record.Operation)
	case strings.HasPrefix(record.Operation, invitation.OperationPrefix):
		c.appendIndex(InvitationKeysIndex(record.EventID), record.Operation)
	}
}

// Get returns the cached record for (event id, operation).
func (c *Cache) Get(eventID, operation string) (storage.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, ok := c.records[RecordKey(eventID, operation)]
	return record, ok
}

// Core returns the cached core record of the event.
func (c *Cache) Core(eventID string) (storage.Record, bool) {
	return c.Get(eventID, storage.CoreOperation)
}

// EventIDs returns the ids of every event with a cached core record.
func (c *Cache) EventIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.indexes[EventKeysIndex]...)
}

// Bundles returns the cached bundle records of the event in index order.
func (c *Cache) Bundles(eventID string) []storage.Record {
	return c.indexed(eventID, BundleKeysIndex(eventID))
}

// Invitations returns the cached invitation records of the event in index
// order.
func (c *Cache) Invitations(eventID string) []storage.Record {
	return c.indexed(eventID, InvitationKeysIndex(eventID))
}

// HasBundleIndex reports whether the event's bundle index list exists,
// distinguishing "never listed" from "listed and empty".
func (c *Cache) HasBundleIndex(eventID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.indexes[BundleKeysIndex(eventID)]
	return ok
}

// HasInvitationIndex reports whether the event's invitation index list
// exists.
func (c *Cache) HasInvitationIndex(eventID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.indexes[InvitationKeysIndex(eventID)]
	return ok
}

// MarkBundlesListed records that the event's bundles were listed, so an
// empty result is cached too.
func (c *Cache) MarkBundlesListed(eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.indexes[BundleKeysIndex(eventID)]; !ok {
		c.indexes[BundleKeysIndex(eventID)] = []string{}
	}
}

// MarkInvitationsListed records that the event's invitations were listed.
func (c *Cache) MarkInvitationsListed(eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.indexes[InvitationKeysIndex(eventID)]; !ok {
		c.indexes[InvitationKeysIndex(eventID)] = []string{}
	}
}

// Remove drops one record and its index entry. Used for the local-only
// bundle delete.
func (c *Cache) Remove(eventID, operation string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.records, RecordKey(eventID, operation))

	switch {
	case strings.HasPrefix(operation, bundle.OperationPrefix):
		c.removeIndex(BundleKeysIndex(eventID), operation)
	case strings.HasPrefix(operation, invitation.OperationPrefix):
		c.removeIndex(InvitationKeysIndex(eventID), operation)
	}
}

// PurgeEvent drops every cached record and index list of the event.
func (c *Cache) PurgeEvent(eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, operation := range c.indexes[BundleKeysIndex(eventID)] {
		delete(c.records, RecordKey(eventID, operation))
	}
	for _, operation := range c.indexes[InvitationKeysIndex(eventID)] {
		delete(c.records, RecordKey(eventID, operation))
	}
	delete(c.records, CoreKey(eventID))
	delete(c.indexes, BundleKeysIndex(eventID))
	delete(c.indexes, InvitationKeysIndex(eventID))
	c.removeIndex(EventKeysIndex, eventID)
}

func (c *Cache) indexed(eventID, indexKey string) []storage.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	operations := c.indexes[indexKey]
	records := make([]storage.Record, 0, len(operations))
	for _, operation := range operations {
		if record, ok := c.records[RecordKey(eventID, operation)]; ok {
			records = append(records, record)
		}
	}
	return records
}

func (c *Cache) appendIndex(indexKey, value string) {
	for _, existing := range c.indexes[indexKey] {
		if existing == value {
			return
		}
	}
	c.indexes[indexKey] = append(c.indexes[indexKey], value)
}

func (c *Cache) removeIndex(indexKey, value string) {
	entries, ok := c.indexes[indexKey]
	if !ok {
		return
	}
	kept := entries[:0]
	for _, existing := range entries {
		if existing != value {
			kept = append(kept, existing)
		}
	}
	c.indexes[indexKey] = kept
}
