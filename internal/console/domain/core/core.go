package core

import (
	"strconv"
	"time"
)

// Operation is the record operation key for event core records.
const Operation = "core"

// Status is the event lifecycle status.
type Status string

// Event lifecycle statuses.
const (
	StatusUpcoming   Status = "UPCOMING"
	StatusDraft      Status = "DRAFT"
	StatusActive     Status = "ACTIVE"
	StatusInProgress Status = "IN_PROGRESS"
	StatusArchived   Status = "ARCHIVED"
)

// Valid reports whether the status is a known lifecycle value.
func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusDraft, StatusActive, StatusInProgress, StatusArchived:
		return true
	}
	return false
}

// Quota describes one named invitation type within an event.
type Quota struct {
	// InvitationType is the unique key of the quota within its event.
	InvitationType string `json:"invitationType"`
	// QuotaQuantity is the number of invitations allocated to this type.
	QuotaQuantity int `json:"quotaQuantity"`
	// Color is the display color in hexadecimal.
	Color string `json:"color"`
	// Description is the user-facing label for the type.
	Description string `json:"description"`
}

// GeneralData holds the descriptive fields of an event.
type GeneralData struct {
	EventName       string            `json:"eventName"`
	EventCode       string            `json:"eventCode"`
	Description     string            `json:"description"`
	Type            string            `json:"type"`
	Edition         string            `json:"edition"`
	YearEdition     string            `json:"yearEdition"`
	WebsiteURL      string            `json:"websiteUrl"`
	LogoURL         string            `json:"logoUrl"`
	PreviewImageURL string            `json:"previewImageUrl"`
	Phone           string            `json:"phone"`
	Tags            map[string]string `json:"tags"`
}

// VenueData holds the venue fields of an event.
type VenueData struct {
	VenueName  string `json:"venueName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

// CoreData groups general and venue info with audit fields.
type CoreData struct {
	GeneralData GeneralData `json:"generalData"`
	VenueData   VenueData   `json:"venueData"`
	CreatedBy   string      `json:"createdBy"`
	ModifiedBy  string      `json:"modifiedBy"`
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
}

// QuotaSnapshot is the persisted quota state of an event: the total
// invitation target plus the keyed quota map.
type QuotaSnapshot struct {
	InvitationsLimit int `json:"invitationsLimits"`
	// Quotas maps invitation type to its quota record. The wire key keeps
	// the historical "quotes" spelling of the persisted representation.
	Quotas map[string]Quota `json:"quotes"`
}

// StatusData wraps the lifecycle status in its persisted envelope.
type StatusData struct {
	Status Status `json:"status"`
}

// Payload is the data blob of a core record.
type Payload struct {
	CoreData       CoreData          `json:"coreData"`
	CoreQuotas     QuotaSnapshot     `json:"coreQuotes"`
	CoreStatus     StatusData        `json:"coreStatus"`
	CoreEventDates map[string]string `json:"coreEventDates"`
}

// Core is the canonical per-event record.
type Core struct {
	EventID   string  `json:"eventId"`
	Operation string  `json:"operation"`
	Data      Payload `json:"data"`
}

// New returns the core skeleton for a freshly created event. The server
// assigns the event id on create.
func New(eventName, eventCode string, now time.Time) Core {
	return Core{
		Operation: Operation,
		Data: Payload{
			CoreData: CoreData{
				GeneralData: GeneralData{
					EventName:   eventName,
					EventCode:   eventCode,
					Type:        "CONCERT",
					YearEdition: strconv.Itoa(now.UTC().Year()),
					Tags:        map[string]string{},
				},
				VenueData:  VenueData{Country: "Spain"},
				CreatedBy:  "admin",
				ModifiedBy: "editor",
			},
			CoreQuotas:     QuotaSnapshot{Quotas: map[string]Quota{}},
			CoreStatus:     StatusData{Status: StatusDraft},
			CoreEventDates: map[string]string{},
		},
	}
}

// WithGeneralInfo returns a new snapshot with updated general fields. Tags
// are stored keyed by themselves, matching the persisted representation.
func (c Core) WithGeneralInfo(eventName, eventCode string, tags []string) Core {
	keyed := make(map[string]string, len(tags))
	for _, tag := range tags {
		keyed[tag] = tag
	}
	c.Data.CoreData.GeneralData.EventName = eventName
	c.Data.CoreData.GeneralData.EventCode = eventCode
	c.Data.CoreData.GeneralData.Tags = keyed
	return c
}

// WithVenue returns a new snapshot with updated venue fields.
func (c Core) WithVenue(venueName, address, city string) Core {
	c.Data.CoreData.VenueData.VenueName = venueName
	c.Data.CoreData.VenueData.Address = address
	c.Data.CoreData.VenueData.City = city
	return c
}

// WithEventDates returns a new snapshot with the keyed date calendar
// replaced and start/end derived from the first and last day keys.
func (c Core) WithEventDates(dates map[string]string) Core {
	values := DateValues(dates)
	c.Data.CoreEventDates = dates
	if len(values) > 0 {
		c.Data.CoreData.StartDate = values[0]
		c.Data.CoreData.EndDate = values[len(values)-1]
	}
	return c
}

// WithQuotas returns a new snapshot with the quota snapshot replaced by the
// given total and quota list, keyed by invitation type.
func (c Core) WithQuotas(totalInvitations int, quotas []Quota) Core {
	keyed := make(map[string]Quota, len(quotas))
	for _, quota := range quotas {
		keyed[quota.InvitationType] = quota
	}
	c.Data.CoreQuotas = QuotaSnapshot{
		InvitationsLimit: totalInvitations,
		Quotas:           keyed,
	}
	return c
}

// WithStatus returns a new snapshot with the lifecycle status replaced.
func (c Core) WithStatus(status Status) Core {
	c.Data.CoreStatus.Status = status
	return c
}

// QuotaList returns the keyed quota map as a slice ordered by invitation
// type so repeated loads present quotas in a stable order.
func (c Core) QuotaList() []Quota {
	return SortedQuotas(c.Data.CoreQuotas.Quotas)
}
