// Package bundle implements the sponsor bundle allocation ledger.
//
// A bundle sub-allocates an event's invitation quotas to one sponsor:
// per-type quantities plus the event dates the sponsor is invited to. The
// ledger keeps an aggregate of committed quantities per invitation type so
// the console can show what each type has left. Aggregation is keyed by
// invitation type; the per-type sums are independent of the order the
// assigned-quota arrays arrive in.
package bundle

import (
	"fmt"

	"github.com/festfun/console/internal/console/domain/core"
	"github.com/festfun/console/internal/id"
)

// OperationPrefix is the record operation prefix for bundle records.
const OperationPrefix = "bundle#"

// AssignedQuota is one per-type allocation inside a bundle.
type AssignedQuota struct {
	InvitationType string `json:"invitationType"`
	AssignedQty    int    `json:"assignedQuotaQty"`
	Color          string `json:"color"`
}

// Bundle is one sponsor allocation under editing.
type Bundle struct {
	// ID has the form "bundle#<seq>#<sponsor slug>". Sequence numbers are
	// 1-based, zero-padded, and never reused after deletes.
	ID               string          `json:"id"`
	SponsorName      string          `json:"sponsorName"`
	Email            string          `json:"email"`
	AssignedQuotas   []AssignedQuota `json:"assignedQuotas"`
	TotalInvitations int             `json:"totalInvitations"`
	// AssignedDates is a sorted ascending subset of the event dates.
	AssignedDates []string `json:"assignedDates"`
}

// AvailableQuota is an event quota annotated with the quantity already
// committed across all bundles of that type.
type AvailableQuota struct {
	core.Quota
	Assigned int `json:"assignedQuotas"`
}

// Remaining returns the uncommitted quantity for the type. Negative values
// signal over-allocation; they are surfaced, not rejected.
func (a AvailableQuota) Remaining() int {
	return a.QuotaQuantity - a.Assigned
}

// ActionType names one ledger transition.
type ActionType string

// Ledger transitions.
const (
	ActionNone       ActionType = ""
	ActionInitialize ActionType = "INITIALIZE_STATE"
	ActionCreate     ActionType = "CREATE_BUNDLE"
	ActionUpdate     ActionType = "UPDATE_BUNDLE"
	ActionDelete     ActionType = "DELETE_BUNDLE"
)

// Action is one ledger transition request.
type Action struct {
	Type ActionType

	// Bundle carries the payload for create and update.
	Bundle Bundle
	// BundleID selects the bundle for delete.
	BundleID string
	// AvailableQuotas and Bundles carry the payload for initialize.
	AvailableQuotas []AvailableQuota
	Bundles         []Bundle
}

// State is the bundle ledger state.
type State struct {
	Bundles         []Bundle
	AvailableQuotas []AvailableQuota
	// LastAction records the transition that produced this state so the
	// sync layer can route the matching persistence call.
	LastAction ActionType
	// LastBundle is the bundle the last create/update/delete applied, with
	// its assigned id. The sync layer persists (or locally removes) it.
	LastBundle Bundle
}

// Initialize builds the initialize action for a load.
func Initialize(availableQuotas []AvailableQuota, bundles []Bundle) Action {
	return Action{Type: ActionInitialize, AvailableQuotas: availableQuotas, Bundles: bundles}
}

// Create builds the create action. The reducer assigns the bundle id.
func Create(b Bundle) Action {
	return Action{Type: ActionCreate, Bundle: b}
}

// Update builds the update action for an existing bundle id.
func Update(b Bundle) Action {
	return Action{Type: ActionUpdate, Bundle: b}
}

// Delete builds the delete action for a bundle id.
func Delete(bundleID string) Action {
	return Action{Type: ActionDelete, BundleID: bundleID}
}

// NewBundleID formats a bundle id from a 1-based sequence number and a
// sponsor name. The slug keeps only lowercased, space-stripped characters
// of the name, so distinct sponsors can collide after normalization;
// sequence numbers keep ids unique as long as they are not reused under a
// colliding slug.
func NewBundleID(seq int, sponsorName string) string {
	return fmt.Sprintf("%s%03d#%s", OperationPrefix, seq, id.Slug(sponsorName))
}

// Reduce applies one action to the ledger and returns the next state.
// Unknown action types and updates or deletes referencing an unknown
// bundle id return the state unchanged.
func Reduce(state State, action Action) State {
	switch action.Type {
	case ActionInitialize:
		return State{
			Bundles:         cloneBundles(action.Bundles),
			AvailableQuotas: cloneAvailable(action.AvailableQuotas),
			LastAction:      action.Type,
		}

	case ActionCreate:
		created := action.Bundle
		created.ID = NewBundleID(len(state.Bundles)+1, created.SponsorName)
		created.TotalInvitations = assignedTotal(created)

		state.Bundles = append(cloneBundles(state.Bundles), created)
		state.AvailableQuotas = applyDelta(state.AvailableQuotas, nil, &created)
		state.LastAction = action.Type
		state.LastBundle = created
		return state

	case ActionUpdate:
		updated := action.Bundle
		prior, found := findBundle(state.Bundles, updated.ID)
		if !found {
			return state
		}
		updated.TotalInvitations = assignedTotal(updated)

		bundles := cloneBundles(state.Bundles)
		for i := range bundles {
			if bundles[i].ID == updated.ID {
				bundles[i] = updated
			}
		}
		state.Bundles = bundles
		state.AvailableQuotas = applyDelta(state.AvailableQuotas, &prior, &updated)
		state.LastAction = action.Type
		state.LastBundle = updated
		return state

	case ActionDelete:
		removed, found := findBundle(state.Bundles, action.BundleID)
		if !found {
			return state
		}

		bundles := make([]Bundle, 0, len(state.Bundles)-1)
		for _, b := range state.Bundles {
			if b.ID != action.BundleID {
				bundles = append(bundles, b)
			}
		}
		state.Bundles = bundles
		state.AvailableQuotas = applyDelta(state.AvailableQuotas, &removed, nil)
		state.LastAction = action.Type
		state.LastBundle = removed
		return state
	}

	return state
}

// BuildAvailable aggregates committed quantities for each event quota
// across the given bundles. Used to seed the ledger on load.
func BuildAvailable(quotas []core.Quota, bundles []Bundle) []AvailableQuota {
	available := make([]AvailableQuota, len(quotas))
	for i, quota := range quotas {
		available[i] = AvailableQuota{Quota: quota}
	}
	for _, b := range bundles {
		available = applyDelta(available, nil, &b)
	}
	return available
}

// applyDelta removes the old bundle's quantities and adds the new bundle's
// quantities into the per-type aggregates, matching by invitation type.
// Types not present in the available set are ignored. The subtract-then-add
// delta keeps aggregates consistent without a global recomputation.
func applyDelta(available []AvailableQuota, prev, next *Bundle) []AvailableQuota {
	result := cloneAvailable(available)
	index := make(map[string]int, len(result))
	for i, quota := range result {
		index[quota.InvitationType] = i
	}

	if prev != nil {
		for _, assigned := range prev.AssignedQuotas {
			if i, ok := index[assigned.InvitationType]; ok {
				result[i].Assigned -= assigned.AssignedQty
			}
		}
	}
	if next != nil {
		for _, assigned := range next.AssignedQuotas {
			if i, ok := index[assigned.InvitationType]; ok {
				result[i].Assigned += assigned.AssignedQty
			}
		}
	}
	return result
}

func assignedTotal(b Bundle) int {
	total := 0
	for _, assigned := range b.AssignedQuotas {
		total += assigned.AssignedQty
	}
	return total
}

func findBundle(bundles []Bundle, bundleID string) (Bundle, bool) {
	for _, b := range bundles {
		if b.ID == bundleID {
			return b, true
		}
	}
	return Bundle{}, false
}

func cloneBundles(bundles []Bundle) []Bundle {
	cloned := make([]Bundle, len(bundles))
	copy(cloned, bundles)
	return cloned
}

func cloneAvailable(available []AvailableQuota) []AvailableQuota {
	cloned := make([]AvailableQuota, len(available))
	copy(cloned, available)
	return cloned
}
