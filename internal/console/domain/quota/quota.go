// Package quota implements the invitation-quota ledger for one event.
//
// The ledger tracks the named invitation types of an event against the
// event's total invitation target. Transitions are pure: Reduce takes the
// current state and an action and returns the next state, leaving the input
// untouched. Remaining capacity is recomputed on every transition and may
// go negative; over-allocation is surfaced, never rejected.
package quota

import "github.com/festfun/console/internal/console/domain/core"

// ActionType names one ledger transition.
type ActionType string

// Ledger transitions.
const (
	// ActionNone marks a state no transition has been applied to.
	ActionNone ActionType = ""
	// ActionInitialize replaces state wholesale on load; the sync layer
	// issues no write-back for it.
	ActionInitialize ActionType = "INITIALIZE"
	// ActionAddQuota appends a new invitation type.
	ActionAddQuota ActionType = "NEW_QUOTA"
	// ActionDeleteQuota removes an invitation type.
	ActionDeleteQuota ActionType = "DELETE_QUOTA"
	// ActionChangeQuotaQuantity sets the quantity of one invitation type.
	ActionChangeQuotaQuantity ActionType = "CHANGE_QUOTA_QTY"
	// ActionChangeTotal updates the event's total invitation target.
	ActionChangeTotal ActionType = "TOTAL_CHANGE"
)

// Action is one ledger transition request.
type Action struct {
	Type ActionType

	// Quota carries the new entry for ActionAddQuota.
	Quota core.Quota
	// InvitationType selects the entry for delete and quantity changes.
	InvitationType string
	// Quantity is the new quantity for ActionChangeQuotaQuantity.
	Quantity int
	// Total is the new target for ActionChangeTotal.
	Total int
	// Quotas is the full quota list for ActionInitialize.
	Quotas []core.Quota
}

// State is the quota ledger state.
type State struct {
	Quotas               []core.Quota
	TotalInvitations     int
	RemainingInvitations int
	// LastAction records the transition that produced this state so the
	// sync layer can distinguish initialization from user edits.
	LastAction ActionType
}

// Initialize builds the initialize action for a load.
func Initialize(quotas []core.Quota, totalInvitations int) Action {
	return Action{Type: ActionInitialize, Quotas: quotas, Total: totalInvitations}
}

// AddQuota builds the add action for a new invitation type. Callers must
// pre-check uniqueness of the invitation type; the ledger does not
// deduplicate.
func AddQuota(quota core.Quota) Action {
	return Action{Type: ActionAddQuota, Quota: quota}
}

// DeleteQuota builds the delete action for an invitation type.
func DeleteQuota(invitationType string) Action {
	return Action{Type: ActionDeleteQuota, InvitationType: invitationType}
}

// ChangeQuantity builds the quantity-change action for an invitation type.
func ChangeQuantity(invitationType string, quantity int) Action {
	return Action{Type: ActionChangeQuotaQuantity, InvitationType: invitationType, Quantity: quantity}
}

// ChangeTotal builds the target-change action.
func ChangeTotal(total int) Action {
	return Action{Type: ActionChangeTotal, Total: total}
}

// Reduce applies one action to the ledger and returns the next state.
// Unknown action types return the state unchanged.
func Reduce(state State, action Action) State {
	switch action.Type {
	case ActionInitialize:
		quotas := cloneQuotas(action.Quotas)
		return State{
			Quotas:               quotas,
			TotalInvitations:     action.Total,
			RemainingInvitations: remaining(action.Total, quotas),
			LastAction:           action.Type,
		}

	case ActionAddQuota:
		quotas := append(cloneQuotas(state.Quotas), action.Quota)
		state.Quotas = quotas
		state.RemainingInvitations = remaining(state.TotalInvitations, quotas)
		state.LastAction = action.Type
		return state

	case ActionDeleteQuota:
		quotas := make([]core.Quota, 0, len(state.Quotas))
		for _, quota := range state.Quotas {
			if quota.InvitationType != action.InvitationType {
				quotas = append(quotas, quota)
			}
		}
		state.Quotas = quotas
		state.RemainingInvitations = remaining(state.TotalInvitations, quotas)
		state.LastAction = action.Type
		return state

	case ActionChangeQuotaQuantity:
		quotas := cloneQuotas(state.Quotas)
		for i := range quotas {
			if quotas[i].InvitationType == action.InvitationType {
				quotas[i].QuotaQuantity = action.Quantity
			}
		}
		state.Quotas = quotas
		state.RemainingInvitations = remaining(state.TotalInvitations, quotas)
		state.LastAction = action.Type
		return state

	case ActionChangeTotal:
		state.TotalInvitations = action.Total
		state.RemainingInvitations = remaining(action.Total, state.Quotas)
		state.LastAction = action.Type
		return state
	}

	return state
}

// HasType reports whether an invitation type is already present. Callers
// use it to validate uniqueness before dispatching ActionAddQuota.
func (s State) HasType(invitationType string) bool {
	for _, quota := range s.Quotas {
		if quota.InvitationType == invitationType {
			return true
		}
	}
	return false
}

// DefaultQuotas returns the starter invitation types offered to a new
// event before any are persisted.
func DefaultQuotas() []core.Quota {
	return []core.Quota{
		{InvitationType: "GENERAL", Color: "#2196f3", Description: "Standard admission"},
		{InvitationType: "VIP", Color: "#f50057", Description: "VIP access and benefits"},
		{InvitationType: "COMPROMIS", Color: "#9c27b0", Description: "Reserved for partners"},
		{InvitationType: "BACKSTAGE", Color: "#ff9800", Description: "Backstage access"},
	}
}

func remaining(total int, quotas []core.Quota) int {
	allocated := 0
	for _, quota := range quotas {
		allocated += quota.QuotaQuantity
	}
	return total - allocated
}

func cloneQuotas(quotas []core.Quota) []core.Quota {
	cloned := make([]core.Quota, len(quotas))
	copy(cloned, quotas)
	return cloned
}
