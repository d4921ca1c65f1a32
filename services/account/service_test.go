package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"chamber122/pkg/errutil"
	"chamber122/pkg/session"
	"chamber122/services/auth"
	"chamber122/services/business"
	"chamber122/services/content"
	"chamber122/services/message"
	"chamber122/services/notification"
	"chamber122/services/registration"
	"chamber122/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeMedia struct {
	purged []string
	fail   error
}

func (f *fakeMedia) PurgeOwner(_ context.Context, userID string) (int, error) {
	if f.fail != nil {
		return 0, f.fail
	}
	f.purged = append(f.purged, userID)
	return 3, nil
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	messages *message.Service
	media    *fakeMedia
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t,
		&auth.User{},
		&business.Business{},
		&content.Record{},
		&content.AuditEntry{},
		&registration.Registration{},
		&notification.Notification{},
		&message.Conversation{},
		&message.Message{},
	)
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	biz := business.NewService(business.ServiceParams{DB: db, Node: node})
	users := auth.NewService(auth.ServiceParams{DB: db, Node: node, Businesses: biz})
	msgs := message.NewService(message.ServiceParams{DB: db, Node: node, Businesses: biz, Users: users})

	svc := NewService(ServiceParams{DB: db, Messages: msgs})
	media := &fakeMedia{}
	svc.media = media
	return &fixture{db: db, svc: svc, messages: msgs, media: media}
}

func (f *fixture) member(t *testing.T, userID, businessID string, role session.Role) {
	t.Helper()
	require.NoError(t, f.db.Create(&auth.User{ID: userID, Email: userID + "@example.com", PasswordHash: "x", Role: role}).Error)
	require.NoError(t, f.db.Create(&business.Business{ID: businessID, OwnerID: userID, Name: businessID}).Error)
}

func (f *fixture) record(t *testing.T, id, businessID, ownerID string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.db.Create(&content.Record{
		ID:          id,
		Kind:        content.KindEvent,
		BusinessID:  businessID,
		OwnerUserID: ownerID,
		Title:       id,
		Status:      content.StatusPublished,
		Origin:      content.OriginOwner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error)
	require.NoError(t, f.db.Create(&content.AuditEntry{ID: "audit-" + id, RecordID: id, Action: content.ActionApprove, CreatedAt: now}).Error)
	require.NoError(t, f.db.Create(&registration.Registration{ID: "reg-" + id, RecordID: id, Name: "Dana", Email: "dana@example.com", CreatedAt: now}).Error)
}

func count(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func TestDeleteBusinessAccountRemovesOwnedRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.member(t, "owner", "biz-owner", session.RoleMember)
	f.member(t, "other", "biz-other", session.RoleMember)

	f.record(t, "rec-business", "biz-owner", "owner")
	f.record(t, "rec-authored", "", "owner")
	f.record(t, "rec-other", "biz-other", "other")

	conv, _, err := f.messages.Start(ctx, "other", message.StartRequest{OtherUserID: "owner"})
	require.NoError(t, err)
	_, err = f.messages.Send(ctx, "other", message.SendRequest{ConversationID: conv.ID, Content: "hello"})
	require.NoError(t, err)

	require.NoError(t, f.db.Create(&notification.Notification{ID: "n-1", UserID: "owner", Kind: notification.KindContentApproved}).Error)
	require.NoError(t, f.db.Create(&notification.Notification{ID: "n-2", UserID: "other", Kind: notification.KindContentApproved}).Error)

	d, err := f.svc.DeleteBusinessAccount(ctx, "admin-1", "biz-owner")
	require.NoError(t, err)
	require.Equal(t, "owner", d.UserID)
	require.EqualValues(t, 2, d.Records)
	require.EqualValues(t, 2, d.Registrations)
	require.EqualValues(t, 1, d.Conversations)
	require.EqualValues(t, 1, d.Messages)
	require.EqualValues(t, 1, d.Notifications)
	require.Equal(t, 3, d.MediaObjects)
	require.Equal(t, []string{"owner"}, f.media.purged)

	require.Zero(t, count(t, f.db, &auth.User{}, "id = ?", "owner"))
	require.Zero(t, count(t, f.db, &business.Business{}, "id = ?", "biz-owner"))
	require.Zero(t, count(t, f.db, &content.Record{}, "owner_user_id = ?", "owner"))
	require.Zero(t, count(t, f.db, &message.Conversation{}, "id = ?", conv.ID))

	require.EqualValues(t, 1, count(t, f.db, &content.Record{}, "id = ?", "rec-other"))
	require.EqualValues(t, 1, count(t, f.db, &registration.Registration{}, "record_id = ?", "rec-other"))
	require.EqualValues(t, 1, count(t, f.db, &notification.Notification{}, "user_id = ?", "other"))
	require.EqualValues(t, 3, count(t, f.db, &content.AuditEntry{}, "1 = 1"))
}

func TestDeleteBusinessAccountRefusals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.member(t, "admin-1", "biz-admin", session.RoleAdmin)
	f.member(t, "admin-2", "biz-admin-2", session.RoleAdmin)

	_, err := f.svc.DeleteBusinessAccount(ctx, "admin-1", "missing")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	_, err = f.svc.DeleteBusinessAccount(ctx, "admin-1", "")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	_, err = f.svc.DeleteBusinessAccount(ctx, "admin-1", "biz-admin")
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))
	require.ErrorIs(t, err, ErrSelfDeletion)

	_, err = f.svc.DeleteBusinessAccount(ctx, "admin-1", "biz-admin-2")
	require.True(t, errutil.Is(err, errutil.StatusForbidden))

	require.EqualValues(t, 2, count(t, f.db, &auth.User{}, "1 = 1"))
	require.Empty(t, f.media.purged)
}

func TestDeleteBusinessAccountSurvivesPurgeFailure(t *testing.T) {
	f := newFixture(t)
	f.member(t, "owner", "biz-owner", session.RoleMember)
	f.media.fail = errors.New("bucket unreachable")

	d, err := f.svc.DeleteBusinessAccount(context.Background(), "admin-1", "biz-owner")
	require.NoError(t, err)
	require.Zero(t, d.MediaObjects)
	require.Zero(t, count(t, f.db, &business.Business{}, "id = ?", "biz-owner"))
}
