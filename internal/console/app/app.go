package app

import (
	"time"

	"github.com/festfun/console/internal/console/cache"
	"github.com/festfun/console/internal/console/storage"
	consolesync "github.com/festfun/console/internal/console/sync"
	"github.com/festfun/console/internal/telemetry"
)

// App wires the console services over one persistence service. One App
// instance corresponds to one editing session.
type App struct {
	Cache       *cache.Cache
	Syncer      *consolesync.Syncer
	Session     *Session
	Events      *Events
	Bundles     *Bundles
	Invitations *Invitations
}

// New builds the service graph. The emitter may be nil; debounceDelay <= 0
// selects the default debounce delay.
func New(service storage.EventItemService, emitter *telemetry.Emitter, debounceDelay time.Duration) *App {
	recordCache := cache.New()
	syncer := consolesync.NewSyncer(service, recordCache, emitter)
	session := NewSession(syncer, debounceDelay)
	return &App{
		Cache:       recordCache,
		Syncer:      syncer,
		Session:     session,
		Events:      NewEvents(syncer),
		Bundles:     NewBundles(session, syncer),
		Invitations: NewInvitations(session, syncer),
	}
}
