package content

import (
	"context"
	"time"

	"chamber122/pkg/config"
	"chamber122/pkg/rediskey"
	"chamber122/pkg/task"
	"chamber122/pkg/taskname"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultSweepInterval = time.Hour
	sweepLockTTL         = 10 * time.Minute
)

// Locker guards the sweep so only one worker runs it at a time. TryLock
// returns a token identifying the holder; Unlock only releases the lock
// while that token still holds it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// unlockScript deletes KEYS[1] only when it still stores ARGV[1].
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) Locker {
	return &redisLocker{rdb: rdb}
}

func (l *redisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (l *redisLocker) Unlock(ctx context.Context, key, token string) error {
	return unlockScript.Run(ctx, l.rdb, []string{key}, token).Err()
}

func NewExpirySweepTask(interval time.Duration) (*asynq.Task, error) {
	return task.NewJSONTask(taskname.ContentExpirySweep, struct{}{},
		asynq.Queue(task.QueueLow),
		asynq.MaxRetry(1),
		asynq.Unique(interval),
	)
}

// SweepHandler runs ExpireStale for content:expiry:sweep tasks.
type SweepHandler struct {
	svc    *Service
	locker Locker
}

type SweepHandlerParams struct {
	fx.In
	Service *Service
	Redis   *redis.Client `optional:"true"`
}

func NewSweepHandler(p SweepHandlerParams) *SweepHandler {
	h := &SweepHandler{svc: p.Service}
	if p.Redis != nil {
		h.locker = NewRedisLocker(p.Redis)
	}
	return h
}

func NewSweepHandlerWith(svc *Service, locker Locker) *SweepHandler {
	return &SweepHandler{svc: svc, locker: locker}
}

func RegisterTasks(mux *asynq.ServeMux, h *SweepHandler) {
	mux.HandleFunc(taskname.ContentExpirySweep, h.HandleSweep)
}

func (h *SweepHandler) HandleSweep(ctx context.Context, _ *asynq.Task) error {
	if h.locker != nil {
		token, ok, err := h.locker.TryLock(ctx, rediskey.ExpirySweepLock, sweepLockTTL)
		if err != nil {
			return err
		}
		if !ok {
			zap.L().Debug("expiry sweep already running")
			return nil
		}
		defer func() {
			if err := h.locker.Unlock(context.WithoutCancel(ctx), rediskey.ExpirySweepLock, token); err != nil {
				zap.L().Warn("failed to release expiry sweep lock", zap.Error(err))
			}
		}()
	}

	_, err := h.svc.ExpireStale(ctx)
	return err
}

// Scheduler enqueues the expiry sweep on a fixed interval.
type Scheduler struct {
	queue    task.Enqueuer
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(queue task.Enqueuer, cfg *config.Config) *Scheduler {
	interval := defaultSweepInterval
	if cfg != nil && cfg.Content.SweepInterval > 0 {
		interval = cfg.Content.SweepInterval
	}
	return &Scheduler{queue: queue, interval: interval}
}

// StartScheduler ties the scheduler loop to the fx lifecycle.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			s.cancel = cancel
			s.done = make(chan struct{})
			go s.run(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if s.cancel == nil {
				return nil
			}
			s.cancel()
			select {
			case <-s.done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	zap.L().Info("[Scheduler] started content expiry scheduler", zap.Duration("interval", s.interval))

	for {
		now := time.Now()
		next := nextRunTime(now, s.interval)
		select {
		case <-time.After(next.Sub(now)):
			s.enqueue()
		case <-ctx.Done():
			zap.L().Info("[Scheduler] stopped")
			return
		}
	}
}

func (s *Scheduler) enqueue() {
	t, err := NewExpirySweepTask(s.interval)
	if err != nil {
		zap.L().Error("[Scheduler] failed to build expiry sweep task", zap.Error(err))
		return
	}
	if _, err := s.queue.Enqueue(t); err != nil {
		zap.L().Warn("[Scheduler] failed to enqueue expiry sweep", zap.Error(err))
		return
	}
	zap.L().Debug("[Scheduler] expiry sweep enqueued")
}

// nextRunTime returns the next multiple of interval after now.
func nextRunTime(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval).Add(interval)
}
