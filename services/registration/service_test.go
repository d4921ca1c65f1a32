package registration

import (
	"context"
	"testing"

	"chamber122/pkg/errutil"
	"chamber122/pkg/session"
	"chamber122/pkg/taskname"
	"chamber122/services/business"
	"chamber122/services/content"
	"chamber122/services/identity"
	"chamber122/services/notification"
	"chamber122/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return nil, nil
}

type fixture struct {
	svc     *Service
	counter *Counter
	records *content.Service
	queue   *fakeEnqueuer
	owner   *identity.Identity
	other   *identity.Identity
	admin   *identity.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t, &Registration{}, &content.Record{}, &content.AuditEntry{}, &business.Business{})
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	q := &fakeEnqueuer{}
	pub := notification.NewPublisher(q)
	biz := business.NewService(business.ServiceParams{DB: db, Node: node})
	counter := NewCounter(db)
	records := content.NewService(content.ServiceParams{
		DB: db, Node: node, Businesses: biz, Publisher: pub, Registrations: counter,
	})

	ctx := context.Background()
	b, err := biz.CreateForOwner(ctx, nil, "owner", "Owner Co")
	require.NoError(t, err)
	b.ApprovalStatus = business.ApprovalApproved

	return &fixture{
		svc:     NewService(ServiceParams{DB: db, Node: node, Records: records, Publisher: pub}),
		counter: counter,
		records: records,
		queue:   q,
		owner: &identity.Identity{
			Principal: &session.Principal{UserID: "owner", Role: session.RoleMember},
			Business:  b,
			Tier:      identity.TierApprovedOwner,
		},
		other: &identity.Identity{
			Principal: &session.Principal{UserID: "other", Role: session.RoleMember},
			Tier:      identity.TierGuest,
		},
		admin: &identity.Identity{
			Principal: &session.Principal{UserID: "admin", Role: session.RoleAdmin},
			Tier:      identity.TierAdmin,
		},
	}
}

func (f *fixture) publish(t *testing.T, draft bool) *content.Record {
	t.Helper()
	rec, _, err := f.records.Create(context.Background(), f.owner, content.KindEvent,
		content.CreateInput{Input: content.Input{Title: "Workshop"}}, draft)
	require.NoError(t, err)
	return rec
}

func TestRegisterForVisibleRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.publish(t, false)

	reg, err := f.svc.Register(ctx, content.KindEvent, rec.ID, CreateRequest{Name: " Ali ", Email: "ALI@example.com", Phone: "5551234"})
	require.NoError(t, err)
	require.Equal(t, "Ali", reg.Name)
	require.Equal(t, "ali@example.com", reg.Email)
	require.Len(t, f.queue.tasks, 1)
	require.Equal(t, taskname.RegistrationCreated, f.queue.tasks[0].Type())

	_, err = f.svc.Register(ctx, content.KindEvent, rec.ID, CreateRequest{Name: "Ali", Email: "ali@example.com"})
	require.True(t, errutil.Is(err, errutil.StatusConflict))

	_, err = f.svc.Register(ctx, content.KindBulletin, rec.ID, CreateRequest{Name: "Ali", Email: "x@example.com"})
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	counts, err := f.counter.CountByRecord(ctx, []string{rec.ID, "none"})
	require.NoError(t, err)
	require.Equal(t, map[string]int64{rec.ID: 1}, counts)
}

func TestRegisterRejectsHiddenRecords(t *testing.T) {
	f := newFixture(t)
	rec := f.publish(t, true)

	_, err := f.svc.Register(context.Background(), content.KindEvent, rec.ID, CreateRequest{Name: "A", Email: "a@example.com"})
	require.True(t, errutil.Is(err, errutil.StatusNotFound))
}

func TestListForRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.publish(t, false)

	_, err := f.svc.Register(ctx, content.KindEvent, rec.ID, CreateRequest{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)

	items, err := f.svc.ListForRecord(ctx, f.owner, rec.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = f.svc.ListForRecord(ctx, f.other, rec.ID)
	require.True(t, errutil.Is(err, errutil.StatusForbidden))

	items, err = f.svc.ListForRecord(ctx, f.admin, rec.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	dash, err := f.records.Dashboard(ctx, f.owner, "")
	require.NoError(t, err)
	require.Len(t, dash, 1)
	require.Equal(t, int64(1), dash[0].RegistrationCount)
}
