package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/festfun/console/internal/console/domain/invitation"
	"github.com/festfun/console/internal/console/storage"
	"github.com/festfun/console/internal/console/storage/sqlite"
)

func TestClientCreateReadRoundTrip(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	created, err := client.Create(context.Background(), storage.Record{
		Operation: "core",
		Data:      json.RawMessage(`{"coreData":{"generalData":{"eventName":"Off Sonnar Music Festival"}}}`),
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	if created.EventID == "" {
		t.Fatal("expected assigned event id")
	}

	got, err := client.Read(context.Background(), created.EventID, "core")
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if got.EventID != created.EventID {
		t.Fatalf("event id = %q, want %q", got.EventID, created.EventID)
	}
	if string(got.Data) != string(created.Data) {
		t.Fatalf("data = %s, want %s", got.Data, created.Data)
	}
}

func TestClientReadMissingRecord(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	if _, err := client.Read(context.Background(), "EVENT#25_93a1#offsonnar", "core"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("read error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestClientCreateDuplicateRecord(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	record := storage.Record{
		EventID:   "EVENT#25_93a1#offsonnar",
		Operation: "core",
		Data:      json.RawMessage(`{}`),
	}
	if _, err := client.Create(context.Background(), record); err != nil {
		t.Fatalf("create record: %v", err)
	}
	if _, err := client.Create(context.Background(), record); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate create error = %v, want %v", err, storage.ErrAlreadyExists)
	}
}

func TestClientSaveAndList(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	eventID := "EVENT#25_93a1#offsonnar"
	if _, err := client.Save(context.Background(), storage.Record{
		EventID:   eventID,
		Operation: "core",
		Data:      json.RawMessage(`{"version":1}`),
	}); err != nil {
		t.Fatalf("save core: %v", err)
	}
	if _, err := client.Save(context.Background(), storage.Record{
		EventID:   eventID,
		Operation: "bundle#001#seat",
		Data:      json.RawMessage(`{"bundleContact":{"sponsorName":"Seat"}}`),
	}); err != nil {
		t.Fatalf("save bundle: %v", err)
	}
	saved, err := client.Save(context.Background(), storage.Record{
		EventID:   eventID,
		Operation: "core",
		Data:      json.RawMessage(`{"version":2}`),
	})
	if err != nil {
		t.Fatalf("save core again: %v", err)
	}
	if string(saved.Data) != `{"version":2}` {
		t.Fatalf("saved data = %s, want upserted version", saved.Data)
	}

	records, err := client.ListByEventID(context.Background(), eventID)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Operation != "bundle#001#seat" || records[1].Operation != "core" {
		t.Fatalf("operations = %q, %q, want bundle then core", records[0].Operation, records[1].Operation)
	}
}

func TestClientListUnknownEventIsEmpty(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	records, err := client.ListByEventID(context.Background(), "EVENT#25_93a1#unknown")
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("len(records) = %d, want 0", len(records))
	}
}

func TestClientInvitationLifecycle(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	eventID := "EVENT#25_93a1#offsonnar"
	contacts := []invitation.Contact{
		{Name: "Nora", Email: "nora@example.com", InvitationType: "VIP", Bundle: "bundle#001#seat"},
		{Name: "Pau", Email: "pau@example.com", InvitationType: "GENERAL", Bundle: "bundle#001#seat"},
	}

	response, err := client.CreateInvitations(context.Background(), eventID, contacts, invitation.Template{TemplateID: invitation.DefaultTemplateID})
	if err != nil {
		t.Fatalf("create invitations: %v", err)
	}
	ids := invitation.ExtractIDs(response)
	if len(ids) != 2 {
		t.Fatalf("len(ids) = %d, want 2", len(ids))
	}
	if ids[0] != "invitation#INV0001" {
		t.Fatalf("ids[0] = %q, want invitation#INV0001", ids[0])
	}

	if err := client.SendInvitations(context.Background(), eventID, ids); err != nil {
		t.Fatalf("send invitations: %v", err)
	}
	if err := client.UpdateInvitations(context.Background(), eventID, ids[:1], "", nil, invitation.StatusApproved); err != nil {
		t.Fatalf("approve invitation: %v", err)
	}

	record, err := client.Read(context.Background(), eventID, ids[0])
	if err != nil {
		t.Fatalf("read invitation: %v", err)
	}
	var payload invitation.Payload
	if err := json.Unmarshal(record.Data, &payload); err != nil {
		t.Fatalf("decode invitation: %v", err)
	}
	if payload.Status.CurrentStatus != invitation.StatusApproved {
		t.Fatalf("status = %q, want %q", payload.Status.CurrentStatus, invitation.StatusApproved)
	}
	if len(payload.Status.Records) != 3 {
		t.Fatalf("len(records) = %d, want created, sent and approved", len(payload.Status.Records))
	}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	server := httptest.NewServer(NewServer(store).Handler())
	t.Cleanup(func() {
		server.Close()
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return NewClient(server.URL, server.Client())
}
