// Package invitation models per-contact invitations and their status
// machine.
//
// An invitation belongs to a bundle and carries the rendered artifacts the
// backend produces for it (QR code, HTML email). Status moves
// CREATED -> SENT -> {APPROVED, REVOKED}. The generic status change only
// accepts the terminal states; SENT is reachable through the dedicated
// send operation alone. Every state ever entered keeps its own record, so
// the status object is an append-only audit of the invitation's history.
package invitation

import (
	"fmt"
	"strings"
	"time"

	"github.com/festfun/console/internal/errors"
)

// OperationPrefix is the record operation prefix for invitation records.
const OperationPrefix = "invitation"

// DefaultTemplateID is the template used when the caller picks none.
const DefaultTemplateID = "WHITE"

// Status is the lifecycle state of an invitation.
type Status string

// Invitation statuses.
const (
	StatusCreated  Status = "CREATED"
	StatusSent     Status = "SENT"
	StatusApproved Status = "APPROVED"
	StatusRevoked  Status = "REVOKED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusSent, StatusApproved, StatusRevoked:
		return true
	}
	return false
}

// Contact is the person an invitation addresses, together with the bundle
// and dates the invitation draws from.
type Contact struct {
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone"`
	InvitationType string            `json:"invitationType"`
	Bundle         string            `json:"bundle"`
	UploadType     string            `json:"uploadType"`
	Dates          map[string]string `json:"invitationDates"`
}

// Template selects the email template and its substitution fields.
type Template struct {
	TemplateID   string            `json:"templateId"`
	CustomFields map[string]string `json:"customFields"`
}

// QRData holds the generated entry QR code artifacts.
type QRData struct {
	Content  string `json:"qrContent"`
	ImageURL string `json:"qrImageUrlS3"`
	URI      string `json:"qrURI"`
	ID       string `json:"qrId"`
}

// HTMLEmail holds the rendered invitation email artifacts.
type HTMLEmail struct {
	URL string `json:"emailHtmlUrlS3"`
	URI string `json:"emailHtmlURI"`
	ID  string `json:"emailHtmlUrlS3Id"`
}

// UploadData records how and when the invitation entered the system.
type UploadData struct {
	UploadedBy      string `json:"uploadBy"`
	InvitationType  string `json:"invitationType"`
	UploadTimestamp string `json:"uploadTimestamp"`
	UploadType      string `json:"uploadType"`
	Bundle          string `json:"bundle"`
}

// StatusRecord is one entry in the per-state status audit.
type StatusRecord struct {
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor"`
	Source    string `json:"source"`
}

// StatusData tracks the current status plus one record for every state the
// invitation has ever entered.
type StatusData struct {
	CurrentStatus Status                  `json:"currentStatus"`
	LastModified  string                  `json:"lastModificationTimestamp"`
	Records       map[Status]StatusRecord `json:"records"`
}

// Payload is the data portion of an invitation record.
type Payload struct {
	Template  Template          `json:"invitationTemplate"`
	Contact   Contact           `json:"invitationContact"`
	QR        QRData            `json:"invitationQrData"`
	Dates     map[string]string `json:"invitationDates"`
	Upload    UploadData        `json:"invitationData"`
	HTMLEmail HTMLEmail         `json:"invitationHtmlEmail"`
	Status    StatusData        `json:"invitationStatus"`
	Code      string            `json:"invitationCode"`
}

// Invitation is one invitation record belonging to an event.
type Invitation struct {
	EventID string `json:"eventId"`
	// Operation has the form "invitation#INV<seq>" and is assigned by the
	// persistence service on create.
	Operation string  `json:"operation"`
	Data      Payload `json:"data"`
}

// NewOperation formats an invitation operation id from a 1-based sequence
// number.
func NewOperation(seq int) string {
	return fmt.Sprintf("%s#INV%04d", OperationPrefix, seq)
}

// New builds a CREATED invitation for a contact. The operation id is left
// empty until the persistence service assigns it.
func New(contact Contact, template Template, actor string, now time.Time) Invitation {
	timestamp := now.UTC().Format(time.RFC3339)
	if template.TemplateID == "" {
		template.TemplateID = DefaultTemplateID
	}
	uploadType := contact.UploadType
	if uploadType == "" {
		uploadType = "FORM"
	}
	return Invitation{
		Data: Payload{
			Template: template,
			Contact:  contact,
			Dates:    contact.Dates,
			Upload: UploadData{
				UploadedBy:      actor,
				InvitationType:  contact.InvitationType,
				UploadTimestamp: timestamp,
				UploadType:      uploadType,
				Bundle:          contact.Bundle,
			},
			Status: StatusData{
				CurrentStatus: StatusCreated,
				LastModified:  timestamp,
				Records: map[Status]StatusRecord{
					StatusCreated: {Timestamp: timestamp, Actor: actor, Source: "FORM-ADMIN"},
				},
			},
		},
	}
}

// NewCode formats the printable invitation code from the event id and the
// assigned operation id. The code ends up inside the QR content.
func NewCode(eventID, operation string) string {
	return fmt.Sprintf("%s#%s", eventID, strings.TrimPrefix(operation, OperationPrefix+"#"))
}

// ChangeStatus applies the generic status change. Only the terminal states
// APPROVED and REVOKED are reachable this way; SENT belongs to the send
// operation and CREATED is never re-entered. The returned invitation
// carries a new status record while keeping every prior per-state record.
func ChangeStatus(inv Invitation, status Status, actor, source string, now time.Time) (Invitation, error) {
	switch status {
	case StatusApproved, StatusRevoked:
	default:
		return inv, errors.New(errors.CodeStatusNotReachable,
			fmt.Sprintf("status %q is not reachable through a status change", status))
	}
	return stamp(inv, status, actor, source, now), nil
}

// MarkSent stamps the SENT status. Re-sending an already SENT invitation
// just refreshes the record.
func MarkSent(inv Invitation, actor string, now time.Time) Invitation {
	return stamp(inv, StatusSent, actor, "SEND", now)
}

func stamp(inv Invitation, status Status, actor, source string, now time.Time) Invitation {
	timestamp := now.UTC().Format(time.RFC3339)

	records := make(map[Status]StatusRecord, len(inv.Data.Status.Records)+1)
	for state, record := range inv.Data.Status.Records {
		records[state] = record
	}
	records[status] = StatusRecord{Timestamp: timestamp, Actor: actor, Source: source}

	inv.Data.Status = StatusData{
		CurrentStatus: status,
		LastModified:  timestamp,
		Records:       records,
	}
	return inv
}

// ExtractIDs parses the invitation id list out of the create-invitations
// response, which has the fixed form
// "Invitation IDs: id1,id2,..., Quantity: N, Duration: Mms". It returns
// nil when the response does not match.
func ExtractIDs(response string) []string {
	const marker = "Invitation IDs: "
	start := strings.Index(response, marker)
	if start < 0 {
		return nil
	}
	rest := response[start+len(marker):]
	end := strings.Index(rest, ", Quantity:")
	if end < 0 {
		return nil
	}

	parts := strings.Split(rest[:end], ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// FormatCreateResponse renders the create-invitations response the way
// ExtractIDs expects it.
func FormatCreateResponse(ids []string, duration time.Duration) string {
	return fmt.Sprintf("Invitation IDs: %s, Quantity: %d, Duration: %dms",
		strings.Join(ids, ","), len(ids), duration.Milliseconds())
}
