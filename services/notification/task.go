package notification

import (
	"context"
	"fmt"

	"chamber122/pkg/task"
	"chamber122/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskHandler turns notification tasks into stored notifications.
type TaskHandler struct {
	svc *Service
}

func NewTaskHandler(svc *Service) *TaskHandler {
	return &TaskHandler{svc: svc}
}

func RegisterTasks(mux *asynq.ServeMux, h *TaskHandler) {
	mux.HandleFunc(taskname.ContentDecided, h.HandleContentDecided)
	mux.HandleFunc(taskname.BusinessReviewed, h.HandleBusinessReviewed)
	mux.HandleFunc(taskname.RegistrationCreated, h.HandleRegistrationCreated)
	mux.HandleFunc(taskname.MessageReceived, h.HandleMessageReceived)
}

var contentKinds = map[string]Kind{
	"approve":                KindContentApproved,
	"reject":                 KindContentRejected,
	"convertGuestSubmission": KindContentConverted,
	"unpublish":              KindContentUnpublished,
	"expire":                 KindContentExpired,
}

func (h *TaskHandler) HandleContentDecided(ctx context.Context, t *asynq.Task) error {
	var p ContentDecidedPayload
	if err := task.Decode(t, &p); err != nil {
		return err
	}

	kind, ok := contentKinds[p.Action]
	if !ok {
		zap.L().Debug("no notification for action", zap.String("action", p.Action))
		return nil
	}

	var title string
	switch kind {
	case KindContentApproved, KindContentConverted:
		title = fmt.Sprintf("Your %s %q is now published", p.Kind, p.Title)
	case KindContentRejected:
		title = fmt.Sprintf("Your %s %q was rejected", p.Kind, p.Title)
	case KindContentUnpublished:
		title = fmt.Sprintf("Your %s %q was moved back to review", p.Kind, p.Title)
	case KindContentExpired:
		title = fmt.Sprintf("Your %s %q has expired", p.Kind, p.Title)
	}

	_, err := h.svc.Create(ctx, p.OwnerUserID, kind, p.RecordID, title, "", p)
	return err
}

func (h *TaskHandler) HandleBusinessReviewed(ctx context.Context, t *asynq.Task) error {
	var p BusinessReviewedPayload
	if err := task.Decode(t, &p); err != nil {
		return err
	}

	var kind Kind
	var title string
	switch p.Status {
	case "approved":
		kind = KindBusinessApproved
		title = fmt.Sprintf("%s has been approved", p.BusinessName)
	case "rejected":
		kind = KindBusinessRejected
		title = fmt.Sprintf("%s was not approved", p.BusinessName)
	default:
		return nil
	}

	_, err := h.svc.Create(ctx, p.OwnerUserID, kind, p.BusinessID, title, p.Reason, p)
	return err
}

func (h *TaskHandler) HandleRegistrationCreated(ctx context.Context, t *asynq.Task) error {
	var p RegistrationCreatedPayload
	if err := task.Decode(t, &p); err != nil {
		return err
	}

	title := fmt.Sprintf("%s registered for %q", p.Name, p.RecordTitle)
	_, err := h.svc.Create(ctx, p.OwnerUserID, KindRegistrationCreated, p.RecordID, title, "", p)
	return err
}

func (h *TaskHandler) HandleMessageReceived(ctx context.Context, t *asynq.Task) error {
	var p MessageReceivedPayload
	if err := task.Decode(t, &p); err != nil {
		return err
	}

	sender := p.SenderName
	if sender == "" {
		sender = "someone"
	}
	title := fmt.Sprintf("New message from %s", sender)
	_, err := h.svc.Create(ctx, p.RecipientUserID, KindMessageReceived, p.ConversationID, title, p.Preview, p)
	return err
}
