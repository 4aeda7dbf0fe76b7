// Package lifecycle holds the product availability and purchase status transition tables.
// It has no storage dependencies; callers apply the returned state with a compare-and-swap write.
package lifecycle

import (
	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
)

// Action is a request to move a product between availability states.
type Action string

const (
	ActionReserve   Action = "reserve"
	ActionUnreserve Action = "unreserve"
	ActionMarkSold  Action = "mark as sold"
	ActionPurchase  Action = "purchase"
	ActionRelease   Action = "release"
	ActionDelete    Action = "delete"
)

// SellerOnly reports whether only the owning seller may trigger a.
func (a Action) SellerOnly() bool {
	return a == ActionUnreserve || a == ActionMarkSold || a == ActionDelete
}

var transitions = map[model.Availability]map[Action]model.Availability{
	model.Available: {
		ActionReserve:  model.Reserved,
		ActionMarkSold: model.Sold,
		ActionPurchase: model.PendingPurchase,
	},
	model.Reserved: {
		ActionUnreserve: model.Available,
		ActionMarkSold:  model.Sold,
	},
	model.PendingPurchase: {
		ActionRelease: model.Available,
	},
	model.Sold: {},
}

// Next returns the state reached from cur by a, or a conflict error naming the illegal move.
func Next(cur model.Availability, a Action) (model.Availability, error) {
	edges, ok := transitions[cur]
	if !ok {
		return "", errs.Conflictf("cannot %s: unknown state %q", a, cur)
	}
	next, ok := edges[a]
	if !ok {
		return "", errs.Conflictf("cannot %s: product is %s", a, describe(cur))
	}
	return next, nil
}

// CanDelete reports whether a listing in cur may be removed. Only Available and Reserved
// listings qualify; a live purchase always holds the product in PendingPurchase.
func CanDelete(cur model.Availability) error {
	if cur == model.Available || cur == model.Reserved {
		return nil
	}
	return errs.Conflictf("cannot %s: product is %s", ActionDelete, describe(cur))
}

// Allowed lists the actions legal from cur.
func Allowed(cur model.Availability) []Action {
	out := make([]Action, 0, len(transitions[cur]))
	for _, a := range []Action{ActionReserve, ActionUnreserve, ActionMarkSold, ActionPurchase, ActionRelease} {
		if _, ok := transitions[cur][a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// FromFlags decodes the legacy boolean triple. Combinations outside the four states are rejected.
func FromFlags(isAvailable, isReserved, isSold bool) (model.Availability, error) {
	switch {
	case isAvailable && !isReserved && !isSold:
		return model.Available, nil
	case !isAvailable && isReserved && !isSold:
		return model.Reserved, nil
	case !isAvailable && !isReserved && isSold:
		return model.Sold, nil
	case !isAvailable && !isReserved && !isSold:
		return model.PendingPurchase, nil
	}
	return "", errs.Validationf("illegal availability flags available=%t reserved=%t sold=%t", isAvailable, isReserved, isSold)
}

func describe(a model.Availability) string {
	switch a {
	case model.Available:
		return "available"
	case model.Reserved:
		return "already reserved"
	case model.PendingPurchase:
		return "pending purchase"
	case model.Sold:
		return "already sold"
	}
	return string(a)
}

// StatusAction moves a purchase between statuses.
type StatusAction string

const (
	StatusComplete StatusAction = "complete"
	StatusCancel   StatusAction = "cancel"
	StatusRefund   StatusAction = "refund"
)

var statusTransitions = map[model.PurchaseStatus]map[StatusAction]model.PurchaseStatus{
	model.StatusPending: {
		StatusComplete: model.StatusCompleted,
		StatusCancel:   model.StatusCancelled,
	},
	model.StatusCompleted: {
		StatusRefund: model.StatusRefunded,
	},
}

// NextStatus returns the status reached from cur by a. Cancelled and refunded have no exits.
func NextStatus(cur model.PurchaseStatus, a StatusAction) (model.PurchaseStatus, error) {
	next, ok := statusTransitions[cur][a]
	if !ok {
		return "", errs.Conflictf("cannot %s purchase: status is %s", a, cur)
	}
	return next, nil
}

// ReleasesProduct reports whether reaching s returns the product to the catalog.
func ReleasesProduct(s model.PurchaseStatus) bool {
	return s == model.StatusCancelled || s == model.StatusRefunded
}
