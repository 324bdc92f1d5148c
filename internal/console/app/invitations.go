package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/festfun/console/internal/console/domain/invitation"
	"github.com/festfun/console/internal/console/storage"
	consolesync "github.com/festfun/console/internal/console/sync"
	"github.com/festfun/console/internal/errors"
)

// Invitations manages the invitation records of the selected event:
// creating them from imported contacts, bulk status changes, and sending.
type Invitations struct {
	session *Session
	syncer  *consolesync.Syncer
}

// NewInvitations builds the invitation service bound to the session's
// selected event.
func NewInvitations(session *Session, syncer *consolesync.Syncer) *Invitations {
	return &Invitations{session: session, syncer: syncer}
}

// List returns the invitations of the selected event, cache-first.
func (i *Invitations) List(ctx context.Context) ([]invitation.Invitation, error) {
	eventID := i.session.EventID()
	if eventID == "" {
		return nil, errors.New(errors.CodeEventIDRequired, "no event id selected")
	}

	records, err := i.syncer.ListInvitations(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return decodeInvitations(records)
}

// CreateFromContacts creates one invitation per imported contact. Every
// contact must already be linked to a bundle; the batch is rejected
// before any remote call otherwise. Partial failures are not tracked:
// the whole batch either succeeds or fails.
func (i *Invitations) CreateFromContacts(ctx context.Context, contacts []invitation.Contact, template invitation.Template) ([]invitation.Invitation, error) {
	eventID := i.session.EventID()
	if eventID == "" {
		return nil, errors.New(errors.CodeEventIDRequired, "no event id selected")
	}
	if len(contacts) == 0 {
		return nil, errors.New(errors.CodeContactsRequired, "no contacts to create invitations from")
	}
	for _, contact := range contacts {
		if contact.Bundle == "" {
			return nil, errors.New(errors.CodeBundleRequired,
				fmt.Sprintf("contact %q has no bundle selected", contact.Name))
		}
	}
	if template.TemplateID == "" {
		template.TemplateID = invitation.DefaultTemplateID
	}

	records, err := i.syncer.CreateInvitations(ctx, eventID, contacts, template)
	if err != nil {
		return nil, err
	}
	return decodeInvitations(records)
}

// UpdateStatus applies a bulk status change. Only APPROVED and REVOKED
// pass; SENT and CREATED are rejected before the remote call.
func (i *Invitations) UpdateStatus(ctx context.Context, ids []string, status invitation.Status) consolesync.SaveResult {
	eventID := i.session.EventID()
	if eventID == "" {
		return consolesync.SaveResult{Err: errors.New(errors.CodeEventIDRequired, "no event id selected")}
	}
	if len(ids) == 0 {
		return consolesync.SaveResult{Err: errors.New(errors.CodeInvitationsRequired, "no invitations selected")}
	}
	return i.syncer.UpdateInvitationStatus(ctx, eventID, ids, status)
}

// Send issues the dedicated send operation for the listed invitations.
// Re-sending an already SENT invitation just re-stamps it.
func (i *Invitations) Send(ctx context.Context, ids []string) consolesync.SaveResult {
	eventID := i.session.EventID()
	if eventID == "" {
		return consolesync.SaveResult{Err: errors.New(errors.CodeEventIDRequired, "no event id selected")}
	}
	if len(ids) == 0 {
		return consolesync.SaveResult{Err: errors.New(errors.CodeInvitationsRequired, "no invitations selected")}
	}
	return i.syncer.SendInvitations(ctx, eventID, ids)
}

func decodeInvitations(records []storage.Record) ([]invitation.Invitation, error) {
	invitations := make([]invitation.Invitation, 0, len(records))
	for _, record := range records {
		inv := invitation.Invitation{EventID: record.EventID, Operation: record.Operation}
		if err := json.Unmarshal(record.Data, &inv.Data); err != nil {
			return nil, fmt.Errorf("unmarshal invitation %s: %w", record.Operation, err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, nil
}
