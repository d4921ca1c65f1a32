package content

import (
	"testing"

	"chamber122/pkg/errutil"
	"chamber122/services/identity"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var allTiers = []identity.Tier{
	identity.TierGuest,
	identity.TierPendingOwner,
	identity.TierApprovedOwner,
	identity.TierAdmin,
}

var allStatuses = []Status{StatusDraft, StatusPending, StatusPublished, StatusRejected, StatusExpired}

var allActions = []Action{
	ActionCreate, ActionSaveDraft, ActionEdit, ActionDelete, ActionSubmit,
	ActionUnpublish, ActionApprove, ActionReject, ActionConvert, ActionExpire,
}

func record(status Status, origin Origin) *Record {
	return &Record{ID: "r1", Kind: KindEvent, BusinessID: "b1", Status: status, Origin: origin}
}

func TestDecideScenarios(t *testing.T) {
	var e Engine

	t.Run("guest submits an event", func(t *testing.T) {
		d := e.Decide(ActionCreate, &Record{Kind: KindEvent}, identity.TierGuest, false)
		require.True(t, d.Allowed)
		require.Equal(t, StatusPending, d.NextStatus)
		require.Equal(t, OriginGuest, d.NextOrigin)
	})

	t.Run("admin approves a pending owner record", func(t *testing.T) {
		rec := record(StatusPending, OriginOwner)
		d := e.Decide(ActionApprove, rec, identity.TierAdmin, false)
		require.True(t, d.Allowed)
		require.Equal(t, StatusPublished, d.NextStatus)

		rec.Status = d.NextStatus
		require.True(t, rec.IsPublished())
	})

	t.Run("pending owner cannot approve own record", func(t *testing.T) {
		d := e.Decide(ActionApprove, record(StatusPending, OriginOwner), identity.TierPendingOwner, true)
		require.False(t, d.Allowed)
		require.Equal(t, ReasonPermissionDenied, d.Reason)
		require.True(t, errutil.Is(d.Err(), errutil.StatusForbidden))
	})

	t.Run("admin converts a guest submission", func(t *testing.T) {
		d := e.Decide(ActionConvert, record(StatusPending, OriginGuest), identity.TierAdmin, false)
		require.True(t, d.Allowed)
		require.Equal(t, StatusPublished, d.NextStatus)
		require.Equal(t, OriginGuest, d.NextOrigin)
	})
}

func TestDecideCreateByTier(t *testing.T) {
	var e Engine
	cases := []struct {
		name    string
		tier    identity.Tier
		owns    bool
		allowed bool
		status  Status
		origin  Origin
	}{
		{"approved owner own business", identity.TierApprovedOwner, true, true, StatusPublished, OriginOwner},
		{"approved owner foreign business", identity.TierApprovedOwner, false, false, "", ""},
		{"pending owner own business", identity.TierPendingOwner, true, true, StatusPending, OriginOwner},
		{"pending owner foreign business", identity.TierPendingOwner, false, false, "", ""},
		{"guest", identity.TierGuest, false, true, StatusPending, OriginGuest},
		{"admin", identity.TierAdmin, false, true, StatusPublished, OriginOwner},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := e.Decide(ActionCreate, &Record{Kind: KindBulletin, BusinessID: "b1"}, tc.tier, tc.owns)
			require.Equal(t, tc.allowed, d.Allowed)
			if !tc.allowed {
				require.Equal(t, ReasonPermissionDenied, d.Reason)
				return
			}
			require.Equal(t, tc.status, d.NextStatus)
			require.Equal(t, tc.origin, d.NextOrigin)
		})
	}
}

func TestDecideSaveDraft(t *testing.T) {
	var e Engine

	d := e.Decide(ActionSaveDraft, &Record{}, identity.TierGuest, false)
	require.True(t, d.Allowed)
	require.Equal(t, StatusDraft, d.NextStatus)
	require.Equal(t, OriginGuest, d.NextOrigin)

	d = e.Decide(ActionSaveDraft, &Record{BusinessID: "b1"}, identity.TierPendingOwner, true)
	require.True(t, d.Allowed)
	require.Equal(t, OriginOwner, d.NextOrigin)

	d = e.Decide(ActionSaveDraft, &Record{BusinessID: "b2"}, identity.TierApprovedOwner, false)
	require.Equal(t, ReasonPermissionDenied, d.Reason)
}

func TestDecideSubmitFromDraft(t *testing.T) {
	var e Engine

	d := e.Decide(ActionSubmit, record(StatusDraft, OriginOwner), identity.TierApprovedOwner, true)
	require.Equal(t, StatusPublished, d.NextStatus)

	d = e.Decide(ActionSubmit, record(StatusDraft, OriginOwner), identity.TierPendingOwner, true)
	require.Equal(t, StatusPending, d.NextStatus)

	d = e.Decide(ActionSubmit, record(StatusDraft, OriginGuest), identity.TierAdmin, false)
	require.Equal(t, StatusPending, d.NextStatus, "guest drafts still need conversion")

	d = e.Decide(ActionSubmit, record(StatusPending, OriginOwner), identity.TierApprovedOwner, true)
	require.Equal(t, ReasonInvalidStateTransition, d.Reason)
}

func TestDecideEdit(t *testing.T) {
	rec := record(StatusPublished, OriginOwner)

	d := Engine{}.Decide(ActionEdit, rec, identity.TierApprovedOwner, true)
	require.True(t, d.Allowed)
	require.Equal(t, StatusPublished, d.NextStatus, "trusted owner edits stay live")

	d = Engine{EditRequiresReview: true}.Decide(ActionEdit, rec, identity.TierApprovedOwner, true)
	require.Equal(t, StatusPending, d.NextStatus)

	d = Engine{EditRequiresReview: true}.Decide(ActionEdit, rec, identity.TierAdmin, false)
	require.Equal(t, StatusPublished, d.NextStatus)

	d = Engine{}.Decide(ActionEdit, rec, identity.TierApprovedOwner, false)
	require.Equal(t, ReasonPermissionDenied, d.Reason)

	d = Engine{}.Decide(ActionEdit, record(StatusRejected, OriginOwner), identity.TierApprovedOwner, true)
	require.Equal(t, ReasonInvalidStateTransition, d.Reason)
}

func TestDecideDeleteAndUnpublish(t *testing.T) {
	var e Engine

	d := e.Decide(ActionDelete, record(StatusExpired, OriginOwner), identity.TierPendingOwner, true)
	require.True(t, d.Allowed)
	require.True(t, d.Remove)

	d = e.Decide(ActionDelete, record(StatusPublished, OriginOwner), identity.TierGuest, false)
	require.Equal(t, ReasonPermissionDenied, d.Reason)

	d = e.Decide(ActionUnpublish, record(StatusPublished, OriginOwner), identity.TierApprovedOwner, true)
	require.Equal(t, StatusPending, d.NextStatus)

	d = e.Decide(ActionUnpublish, record(StatusDraft, OriginOwner), identity.TierApprovedOwner, true)
	require.Equal(t, ReasonInvalidStateTransition, d.Reason)
	require.True(t, errutil.Is(d.Err(), errutil.StatusInvalidTransition))
}

func TestApproveTwiceIsInvalid(t *testing.T) {
	var e Engine
	rec := record(StatusPending, OriginOwner)

	d := e.Decide(ActionApprove, rec, identity.TierAdmin, false)
	require.True(t, d.Allowed)
	rec.Status = d.NextStatus

	d = e.Decide(ActionApprove, rec, identity.TierAdmin, false)
	require.False(t, d.Allowed)
	require.Equal(t, ReasonInvalidStateTransition, d.Reason)
}

func TestTerminalStatesAcceptNoTransition(t *testing.T) {
	var e Engine
	for _, status := range []Status{StatusRejected, StatusExpired} {
		for _, action := range allActions {
			if action == ActionCreate || action == ActionSaveDraft || action == ActionDelete {
				continue
			}
			d := e.Decide(action, record(status, OriginOwner), identity.TierAdmin, true)
			require.False(t, d.Allowed, "%s on %s", action, status)
			require.Equal(t, ReasonInvalidStateTransition, d.Reason)
		}
	}
}

func TestPermissionCheckedBeforeState(t *testing.T) {
	// approve on a published record by a non-admin is a permission error,
	// not a state error.
	d := Engine{}.Decide(ActionApprove, record(StatusPublished, OriginOwner), identity.TierApprovedOwner, true)
	require.Equal(t, ReasonPermissionDenied, d.Reason)
}

func TestUnknownActionIsInvalid(t *testing.T) {
	d := Engine{}.Decide(Action("archive"), record(StatusPending, OriginOwner), identity.TierAdmin, true)
	require.Equal(t, ReasonInvalidStateTransition, d.Reason)

	d = Engine{}.Decide(ActionApprove, nil, identity.TierAdmin, true)
	require.Equal(t, ReasonInvalidStateTransition, d.Reason)
}

// Guest records only ever reach published through approve or convert.
func TestGuestRecordsNeverPublishDirectly(t *testing.T) {
	for _, flag := range []bool{false, true} {
		e := Engine{EditRequiresReview: flag}
		for _, status := range allStatuses {
			if status == StatusPublished {
				continue
			}
			for _, tier := range allTiers {
				for _, owns := range []bool{false, true} {
					for _, action := range allActions {
						if action == ActionCreate || action == ActionSaveDraft {
							continue
						}
						d := e.Decide(action, record(status, OriginGuest), tier, owns)
						if d.Allowed && d.NextStatus == StatusPublished {
							require.Contains(t, []Action{ActionApprove, ActionConvert}, action,
								"%s by %s on guest %s", action, tier, status)
						}
					}
				}
			}
		}
	}
}

func TestPendingOwnerNeverPublishes(t *testing.T) {
	e := Engine{}
	for _, status := range allStatuses {
		for _, action := range []Action{ActionCreate, ActionSubmit, ActionEdit} {
			d := e.Decide(action, record(status, OriginOwner), identity.TierPendingOwner, true)
			if !d.Allowed || action == ActionEdit {
				continue
			}
			require.Equal(t, StatusPending, d.NextStatus, "%s from %s", action, status)
		}
	}
}
