package bundle

import (
	"sort"

	"github.com/festfun/console/internal/console/domain/core"
)

// Stats carries the per-bundle invitation counters the backend maintains
// as invitations move through their lifecycle.
type Stats struct {
	StateCountsByType map[string]map[string]int `json:"stateCountsByType"`
	Accepted          int                       `json:"accepted"`
	Sent              int                       `json:"sent"`
	TotalInvitations  int                       `json:"totalInvitations"`
}

// StatusData wraps the bundle lifecycle status.
type StatusData struct {
	Status string `json:"status"`
}

// ContactInfo names the sponsor behind a bundle.
type ContactInfo struct {
	SponsorName string `json:"sponsorName"`
	Email       string `json:"email"`
}

// Payload is the persisted representation of a bundle: quotas and dates
// keyed by name instead of the positional arrays the ledger edits.
type Payload struct {
	BundleData    Stats             `json:"bundleData"`
	BundleDates   map[string]string `json:"bundleDates"`
	BundleQuotas  map[string]int    `json:"bundleQuotes"`
	BundleStatus  StatusData        `json:"bundleStatus"`
	BundleContact ContactInfo       `json:"bundleContact"`
}

// ToPayload converts an edited bundle into its persisted representation.
// Assigned dates become a keyed "day#NN" map and assigned quotas a map
// from invitation type to quantity.
func ToPayload(b Bundle) Payload {
	quotas := make(map[string]int, len(b.AssignedQuotas))
	for _, assigned := range b.AssignedQuotas {
		quotas[assigned.InvitationType] = assigned.AssignedQty
	}
	return Payload{
		BundleData: Stats{
			StateCountsByType: map[string]map[string]int{},
			TotalInvitations:  b.TotalInvitations,
		},
		BundleDates:  core.KeyDates(b.AssignedDates),
		BundleQuotas: quotas,
		BundleStatus: StatusData{Status: "DRAFT"},
		BundleContact: ContactInfo{
			SponsorName: b.SponsorName,
			Email:       b.Email,
		},
	}
}

// FromPayload converts a persisted bundle back into its editable form.
// colorByType restores the display color of each quota type; missing
// types keep an empty color. Quota entries come out sorted by type so the
// conversion is deterministic.
func FromPayload(operation string, p Payload, colorByType map[string]string) Bundle {
	types := make([]string, 0, len(p.BundleQuotas))
	for invitationType := range p.BundleQuotas {
		types = append(types, invitationType)
	}
	sort.Strings(types)

	assigned := make([]AssignedQuota, 0, len(types))
	total := 0
	for _, invitationType := range types {
		quantity := p.BundleQuotas[invitationType]
		assigned = append(assigned, AssignedQuota{
			InvitationType: invitationType,
			AssignedQty:    quantity,
			Color:          colorByType[invitationType],
		})
		total += quantity
	}

	return Bundle{
		ID:               operation,
		SponsorName:      p.BundleContact.SponsorName,
		Email:            p.BundleContact.Email,
		AssignedQuotas:   assigned,
		TotalInvitations: total,
		AssignedDates:    core.DateValues(p.BundleDates),
	}
}
