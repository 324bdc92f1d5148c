// Package core models the canonical per-event record.
//
// The core record is the aggregate root for one festival/event: general
// info, venue, the keyed event-date calendar, the quota snapshot, and the
// event lifecycle status. Every mutation produces a new immutable snapshot;
// the persistence representation is a single record keyed by
// (event id, "core").
package core
