package notification

import (
	"context"

	"chamber122/pkg/logger"
	"chamber122/pkg/task"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Publisher enqueues notification tasks. Delivery is best effort: a failed
// enqueue is logged and never fails the request that caused it.
type Publisher struct {
	queue task.Enqueuer
}

func NewPublisher(queue task.Enqueuer) *Publisher {
	return &Publisher{queue: queue}
}

func (p *Publisher) ContentDecided(ctx context.Context, payload ContentDecidedPayload) {
	if payload.OwnerUserID == "" {
		return
	}
	t, err := NewContentDecidedTask(payload)
	p.enqueue(ctx, t, err)
}

func (p *Publisher) BusinessReviewed(ctx context.Context, payload BusinessReviewedPayload) {
	t, err := NewBusinessReviewedTask(payload)
	p.enqueue(ctx, t, err)
}

func (p *Publisher) RegistrationCreated(ctx context.Context, payload RegistrationCreatedPayload) {
	if payload.OwnerUserID == "" {
		return
	}
	t, err := NewRegistrationCreatedTask(payload)
	p.enqueue(ctx, t, err)
}

func (p *Publisher) MessageReceived(ctx context.Context, payload MessageReceivedPayload) {
	if payload.RecipientUserID == "" || payload.RecipientUserID == payload.SenderID {
		return
	}
	t, err := NewMessageReceivedTask(payload)
	p.enqueue(ctx, t, err)
}

func (p *Publisher) enqueue(ctx context.Context, t *asynq.Task, err error) {
	log := logger.WithTrace(ctx, nil)
	if err != nil {
		log.Error("failed to build notification task", zap.Error(err))
		return
	}
	if p == nil || p.queue == nil {
		return
	}
	if _, err := p.queue.Enqueue(t); err != nil {
		log.Warn("failed to enqueue notification", zap.String("task_type", t.Type()), zap.Error(err))
	}
}
