package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"chamber122/pkg/config"
	"chamber122/pkg/rediskey"
	"chamber122/pkg/task"
	"chamber122/pkg/taskname"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeLocker struct {
	held     map[string]string
	fail     error
	unlocked int
	// steal hands the lock to another holder right after it is taken, as
	// happens when a sweep outlives the lock TTL.
	steal bool
	seq   int
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	if l.fail != nil {
		return "", false, l.fail
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	l.seq++
	token := fmt.Sprintf("token-%d", l.seq)
	l.held[key] = token
	if l.steal {
		l.held[key] = "other-worker"
	}
	return token, true, nil
}

func (l *fakeLocker) Unlock(_ context.Context, key, token string) error {
	if l.held[key] == token {
		delete(l.held, key)
		l.unlocked++
	}
	return nil
}

func TestNextRunTime(t *testing.T) {
	now := time.Date(2025, 1, 5, 10, 17, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 1, 5, 11, 0, 0, 0, time.UTC), nextRunTime(now, time.Hour))
	require.Equal(t, time.Date(2025, 1, 5, 10, 30, 0, 0, time.UTC), nextRunTime(now, 15*time.Minute))
}

func TestHandleSweepTakesLock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	old := input("old")
	old.EndAt = at("2024-01-01")
	rec, _, err := f.svc.Create(ctx, f.approved, KindEvent, old, false)
	require.NoError(t, err)

	locker := &fakeLocker{held: map[string]string{}}
	h := NewSweepHandlerWith(f.svc, locker)
	sweep := asynq.NewTask(taskname.ContentExpirySweep, nil)

	locker.held[rediskey.ExpirySweepLock] = "other-worker"
	require.NoError(t, h.HandleSweep(ctx, sweep))
	got, err := f.svc.Get(ctx, f.admin, KindEvent, rec.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPublished, got.Status, "held lock skips the sweep")

	delete(locker.held, rediskey.ExpirySweepLock)
	require.NoError(t, h.HandleSweep(ctx, sweep))
	got, err = f.svc.Get(ctx, f.admin, KindEvent, rec.ID)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, got.Status)
	require.Equal(t, 1, locker.unlocked)
	require.NotContains(t, locker.held, rediskey.ExpirySweepLock)

	locker.fail = errors.New("redis down")
	require.Error(t, h.HandleSweep(ctx, sweep))
}

func TestHandleSweepKeepsLockTakenByAnotherWorker(t *testing.T) {
	f := newFixture(t, nil)
	locker := &fakeLocker{held: map[string]string{}, steal: true}
	h := NewSweepHandlerWith(f.svc, locker)

	require.NoError(t, h.HandleSweep(context.Background(), asynq.NewTask(taskname.ContentExpirySweep, nil)))
	require.Equal(t, "other-worker", locker.held[rediskey.ExpirySweepLock])
	require.Zero(t, locker.unlocked)
}

func TestRedisLockerReleasesOnlyOwnToken(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	key := "test:" + t.Name()
	require.NoError(t, rdb.Del(ctx, key).Err())

	locker := NewRedisLocker(rdb)
	first, ok, err := locker.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	// Simulate expiry followed by another worker taking the lock.
	require.NoError(t, rdb.Set(ctx, key, "other-worker", time.Minute).Err())
	require.NoError(t, locker.Unlock(ctx, key, first))
	held, err := rdb.Get(ctx, key).Result()
	require.NoError(t, err)
	require.Equal(t, "other-worker", held)

	require.NoError(t, locker.Unlock(ctx, key, "other-worker"))
	require.ErrorIs(t, rdb.Get(ctx, key).Err(), redis.Nil)
}

type taskTypeMatcher string

func (m taskTypeMatcher) Matches(x any) bool {
	t, ok := x.(*asynq.Task)
	return ok && t.Type() == string(m)
}

func (m taskTypeMatcher) String() string { return "task of type " + string(m) }

func TestSchedulerEnqueuesUniqueSweep(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := task.NewMockEnqueuer(ctrl)
	q.EXPECT().Enqueue(taskTypeMatcher(taskname.ContentExpirySweep)).Return(&asynq.TaskInfo{}, nil).Times(1)

	s := NewScheduler(q, nil)
	require.Equal(t, defaultSweepInterval, s.interval)
	s.enqueue()
}

func TestSchedulerSurvivesEnqueueFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := task.NewMockEnqueuer(ctrl)
	q.EXPECT().Enqueue(gomock.Any()).Return(nil, asynq.ErrDuplicateTask)

	cfg := &config.Config{}
	cfg.Content.SweepInterval = 15 * time.Minute
	s := NewScheduler(q, cfg)
	require.Equal(t, 15*time.Minute, s.interval)
	require.NotPanics(t, s.enqueue)
}
