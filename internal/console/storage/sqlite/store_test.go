package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/festfun/console/internal/console/domain/invitation"
	"github.com/festfun/console/internal/console/storage"
	"github.com/festfun/console/internal/telemetry"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestCreateReadRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	input := storage.Record{
		EventID:   "EVENT#25_93a1#offsonnar",
		Operation: "core",
		Data:      json.RawMessage(`{"coreData":{"generalData":{"eventName":"Off Sonnar"}}}`),
	}
	if _, err := store.Create(context.Background(), input); err != nil {
		t.Fatalf("create event item: %v", err)
	}

	got, err := store.Read(context.Background(), input.EventID, "core")
	if err != nil {
		t.Fatalf("read event item: %v", err)
	}
	if got.EventID != input.EventID {
		t.Fatalf("event_id = %q, want %q", got.EventID, input.EventID)
	}
	if got.Operation != input.Operation {
		t.Fatalf("operation = %q, want %q", got.Operation, input.Operation)
	}
	if string(got.Data) != string(input.Data) {
		t.Fatalf("data = %s, want %s", got.Data, input.Data)
	}
}

func TestCreateAssignsEventID(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	got, err := store.Create(context.Background(), storage.Record{
		Operation: "core",
		Data:      json.RawMessage(`{"coreData":{"generalData":{"eventName":"Off Sonnar Music Festival"}}}`),
	})
	if err != nil {
		t.Fatalf("create event item: %v", err)
	}
	if !strings.HasPrefix(got.EventID, "EVENT#") {
		t.Fatalf("event_id = %q, want EVENT# prefix", got.EventID)
	}
	if !strings.HasSuffix(got.EventID, "#offsonnarmusicfestival") {
		t.Fatalf("event_id = %q, want name slug suffix", got.EventID)
	}
}

func TestCreateReturnsAlreadyExistsOnDuplicate(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	input := storage.Record{
		EventID:   "EVENT#25_93a1#offsonnar",
		Operation: "bundle#001#seat",
		Data:      json.RawMessage(`{}`),
	}
	if _, err := store.Create(context.Background(), input); err != nil {
		t.Fatalf("create event item: %v", err)
	}
	if _, err := store.Create(context.Background(), input); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate create error = %v, want %v", err, storage.ErrAlreadyExists)
	}
}

func TestReadMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.Read(context.Background(), "EVENT#25_93a1#offsonnar", "core"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("read error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestSaveUpserts(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	record := storage.Record{
		EventID:   "EVENT#25_93a1#offsonnar",
		Operation: "core",
		Data:      json.RawMessage(`{"coreStatus":{"status":"DRAFT"}}`),
	}
	if _, err := store.Save(context.Background(), record); err != nil {
		t.Fatalf("save event item: %v", err)
	}

	record.Data = json.RawMessage(`{"coreStatus":{"status":"ACTIVE"}}`)
	if _, err := store.Save(context.Background(), record); err != nil {
		t.Fatalf("save updated event item: %v", err)
	}

	got, err := store.Read(context.Background(), record.EventID, record.Operation)
	if err != nil {
		t.Fatalf("read event item: %v", err)
	}
	if string(got.Data) != string(record.Data) {
		t.Fatalf("data = %s, want %s", got.Data, record.Data)
	}
}

func TestListByEventIDOrdersByOperation(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	eventID := "EVENT#25_93a1#offsonnar"
	for _, operation := range []string{"invitation#INV0001", "core", "bundle#001#seat"} {
		if _, err := store.Create(context.Background(), storage.Record{
			EventID:   eventID,
			Operation: operation,
			Data:      json.RawMessage(`{}`),
		}); err != nil {
			t.Fatalf("create %s: %v", operation, err)
		}
	}

	records, err := store.ListByEventID(context.Background(), eventID)
	if err != nil {
		t.Fatalf("list event items: %v", err)
	}
	want := []string{"bundle#001#seat", "core", "invitation#INV0001"}
	if len(records) != len(want) {
		t.Fatalf("len(records) = %d, want %d", len(records), len(want))
	}
	for i, record := range records {
		if record.Operation != want[i] {
			t.Fatalf("records[%d].Operation = %q, want %q", i, record.Operation, want[i])
		}
	}
}

func TestCreateInvitationsAssignsSequentialIDs(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	eventID := "EVENT#25_93a1#offsonnar"
	contacts := []invitation.Contact{
		{Name: "Laia Puig", Email: "laia@example.com", InvitationType: "VIP", Bundle: "bundle#001#seat"},
		{Name: "Marc Soler", Email: "marc@example.com", InvitationType: "GENERAL", Bundle: "bundle#001#seat"},
	}

	response, err := store.CreateInvitations(context.Background(), eventID, contacts, invitation.Template{})
	if err != nil {
		t.Fatalf("create invitations: %v", err)
	}

	ids := invitation.ExtractIDs(response)
	want := []string{"invitation#INV0001", "invitation#INV0002"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range ids {
		if ids[i] != want[i] {
			t.Fatalf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	// a second batch continues the sequence
	response, err = store.CreateInvitations(context.Background(), eventID, contacts[:1], invitation.Template{})
	if err != nil {
		t.Fatalf("create second batch: %v", err)
	}
	ids = invitation.ExtractIDs(response)
	if len(ids) != 1 || ids[0] != "invitation#INV0003" {
		t.Fatalf("second batch ids = %v, want [invitation#INV0003]", ids)
	}
}

func TestUpdateInvitationsStatusChange(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	eventID := "EVENT#25_93a1#offsonnar"
	contacts := []invitation.Contact{
		{Name: "Laia Puig", Email: "laia@example.com", InvitationType: "VIP", Bundle: "bundle#001#seat"},
	}
	if _, err := store.CreateInvitations(context.Background(), eventID, contacts, invitation.Template{}); err != nil {
		t.Fatalf("create invitations: %v", err)
	}

	ids := []string{"invitation#INV0001"}
	if err := store.UpdateInvitations(context.Background(), eventID, ids, "", nil, invitation.StatusApproved); err != nil {
		t.Fatalf("approve invitations: %v", err)
	}

	inv, err := store.readInvitation(context.Background(), eventID, ids[0])
	if err != nil {
		t.Fatalf("read invitation: %v", err)
	}
	if got, want := inv.Data.Status.CurrentStatus, invitation.StatusApproved; got != want {
		t.Fatalf("status = %q, want %q", got, want)
	}
	if _, ok := inv.Data.Status.Records[invitation.StatusCreated]; !ok {
		t.Fatal("CREATED record dropped by approval")
	}
}

func TestUpdateInvitationsRejectsSent(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	eventID := "EVENT#25_93a1#offsonnar"
	contacts := []invitation.Contact{
		{Name: "Laia Puig", Email: "laia@example.com", InvitationType: "VIP", Bundle: "bundle#001#seat"},
	}
	if _, err := store.CreateInvitations(context.Background(), eventID, contacts, invitation.Template{}); err != nil {
		t.Fatalf("create invitations: %v", err)
	}

	err := store.UpdateInvitations(context.Background(), eventID, []string{"invitation#INV0001"}, "", nil, invitation.StatusSent)
	if err == nil {
		t.Fatal("expected rejection of SENT through the generic update")
	}
}

func TestSendInvitationsStampsSent(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	eventID := "EVENT#25_93a1#offsonnar"
	contacts := []invitation.Contact{
		{Name: "Laia Puig", Email: "laia@example.com", InvitationType: "VIP", Bundle: "bundle#001#seat"},
	}
	if _, err := store.CreateInvitations(context.Background(), eventID, contacts, invitation.Template{}); err != nil {
		t.Fatalf("create invitations: %v", err)
	}

	if err := store.SendInvitations(context.Background(), eventID, []string{"invitation#INV0001"}); err != nil {
		t.Fatalf("send invitations: %v", err)
	}

	inv, err := store.readInvitation(context.Background(), eventID, "invitation#INV0001")
	if err != nil {
		t.Fatalf("read invitation: %v", err)
	}
	if got, want := inv.Data.Status.CurrentStatus, invitation.StatusSent; got != want {
		t.Fatalf("status = %q, want %q", got, want)
	}
}

func TestAppendTelemetryEvent(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	err := store.AppendTelemetryEvent(context.Background(), telemetry.Event{
		Severity: telemetry.SeverityInfo,
		Source:   "sync",
		Name:     "bundle.create",
		EventID:  "EVENT#25_93a1#offsonnar",
	})
	if err != nil {
		t.Fatalf("append telemetry event: %v", err)
	}

	var count int
	row := store.sqlDB.QueryRow(`SELECT COUNT(*) FROM telemetry_events`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count telemetry events: %v", err)
	}
	if count != 1 {
		t.Fatalf("telemetry event count = %d, want 1", count)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store.now = func() time.Time {
		return time.Date(2025, time.May, 29, 12, 0, 0, 0, time.UTC)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
