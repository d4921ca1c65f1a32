package content

import (
	"chamber122/pkg/errutil"
	"chamber122/services/identity"
)

type Action string

const (
	ActionCreate    Action = "create"
	ActionSaveDraft Action = "saveDraft"
	ActionEdit      Action = "edit"
	ActionDelete    Action = "delete"
	ActionSubmit    Action = "submit"
	ActionUnpublish Action = "unpublish"
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionConvert   Action = "convertGuestSubmission"
	ActionExpire    Action = "expire"
)

// ErrorKind explains a refused decision.
type ErrorKind string

const (
	ReasonNone                   ErrorKind = ""
	ReasonPermissionDenied       ErrorKind = "permission_denied"
	ReasonInvalidStateTransition ErrorKind = "invalid_state_transition"
)

// Decision is the outcome of Engine.Decide. When Allowed is false only
// Reason is meaningful.
type Decision struct {
	Allowed    bool      `json:"allowed"`
	NextStatus Status    `json:"next_status,omitempty"`
	NextOrigin Origin    `json:"-"`
	Remove     bool      `json:"remove,omitempty"`
	Reason     ErrorKind `json:"reason,omitempty"`
}

// Err converts a refused decision into the API error for it.
func (d Decision) Err() error {
	switch d.Reason {
	case ReasonNone:
		return nil
	case ReasonPermissionDenied:
		return errutil.Forbidden("permission denied", nil)
	default:
		return errutil.InvalidTransition("invalid state transition", nil)
	}
}

func deny() Decision {
	return Decision{Reason: ReasonPermissionDenied}
}

func invalid() Decision {
	return Decision{Reason: ReasonInvalidStateTransition}
}

func allow(rec *Record, next Status) Decision {
	return Decision{Allowed: true, NextStatus: next, NextOrigin: rec.Origin}
}

// Engine decides lifecycle transitions. It does no I/O; callers load the
// record snapshot, decide, then persist conditionally on the version they
// loaded.
type Engine struct {
	// EditRequiresReview sends published records edited by a non-admin back
	// to pending.
	EditRequiresReview bool
}

// Decide evaluates action on rec for an actor of the given tier.
// ownsRecord is true when the actor owns the record's business, or for
// create and saveDraft, the business the record is being created under.
// Permission is checked before state.
func (e Engine) Decide(action Action, rec *Record, tier identity.Tier, ownsRecord bool) Decision {
	if rec == nil {
		return invalid()
	}
	admin := tier == identity.TierAdmin
	ownerOrAdmin := ownsRecord || admin

	switch action {
	case ActionCreate:
		switch {
		case admin:
			return Decision{Allowed: true, NextStatus: StatusPublished, NextOrigin: OriginOwner}
		case tier == identity.TierApprovedOwner && ownsRecord:
			return Decision{Allowed: true, NextStatus: StatusPublished, NextOrigin: OriginOwner}
		case tier == identity.TierPendingOwner && ownsRecord:
			return Decision{Allowed: true, NextStatus: StatusPending, NextOrigin: OriginOwner}
		case tier == identity.TierGuest:
			return Decision{Allowed: true, NextStatus: StatusPending, NextOrigin: OriginGuest}
		default:
			return deny()
		}

	case ActionSaveDraft:
		switch {
		case tier.IsOwner() && !ownsRecord:
			return deny()
		case tier == identity.TierGuest:
			return Decision{Allowed: true, NextStatus: StatusDraft, NextOrigin: OriginGuest}
		default:
			return Decision{Allowed: true, NextStatus: StatusDraft, NextOrigin: OriginOwner}
		}

	case ActionEdit:
		if !ownerOrAdmin {
			return deny()
		}
		if rec.Status.Terminal() {
			return invalid()
		}
		if e.EditRequiresReview && !admin && rec.Status == StatusPublished {
			return allow(rec, StatusPending)
		}
		return allow(rec, rec.Status)

	case ActionDelete:
		if !ownerOrAdmin {
			return deny()
		}
		return Decision{Allowed: true, NextStatus: rec.Status, NextOrigin: rec.Origin, Remove: true}

	case ActionSubmit:
		if !ownerOrAdmin {
			return deny()
		}
		if rec.Status != StatusDraft {
			return invalid()
		}
		if rec.Origin == OriginGuest {
			return allow(rec, StatusPending)
		}
		if admin || tier == identity.TierApprovedOwner {
			return allow(rec, StatusPublished)
		}
		return allow(rec, StatusPending)

	case ActionUnpublish:
		if !ownerOrAdmin {
			return deny()
		}
		if rec.Status != StatusPublished {
			return invalid()
		}
		return allow(rec, StatusPending)

	case ActionApprove:
		if !admin {
			return deny()
		}
		if rec.Status != StatusPending {
			return invalid()
		}
		return allow(rec, StatusPublished)

	case ActionReject:
		if !admin {
			return deny()
		}
		if rec.Status != StatusPending {
			return invalid()
		}
		return allow(rec, StatusRejected)

	case ActionConvert:
		if !admin {
			return deny()
		}
		if rec.Status != StatusPending || rec.Origin != OriginGuest {
			return invalid()
		}
		return allow(rec, StatusPublished)

	case ActionExpire:
		if !admin {
			return deny()
		}
		if rec.Status != StatusPublished {
			return invalid()
		}
		return allow(rec, StatusExpired)
	}

	return invalid()
}
