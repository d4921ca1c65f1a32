package identity

import (
	"chamber122/pkg/session"
	"chamber122/services/business"
)

// Tier is the verification tier content permissions are decided on.
type Tier string

const (
	TierGuest         Tier = "guest"
	TierPendingOwner  Tier = "pendingOwner"
	TierApprovedOwner Tier = "approvedOwner"
	TierAdmin         Tier = "admin"
)

func (t Tier) String() string { return string(t) }

// IsOwner reports whether t is one of the business owner tiers.
func (t Tier) IsOwner() bool {
	return t == TierPendingOwner || t == TierApprovedOwner
}

// ResolveTier derives the tier for principal and the business it owns.
// Admin wins over everything. A signed-in user without a business is a
// guest for content purposes.
func ResolveTier(principal *session.Principal, b *business.Business) Tier {
	switch {
	case principal == nil:
		return TierGuest
	case principal.Role == session.RoleAdmin:
		return TierAdmin
	case b == nil:
		return TierGuest
	case b.ApprovalStatus == business.ApprovalApproved:
		return TierApprovedOwner
	default:
		return TierPendingOwner
	}
}
