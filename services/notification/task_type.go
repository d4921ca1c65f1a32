package notification

import (
	"chamber122/pkg/task"
	"chamber122/pkg/taskname"

	"github.com/hibiken/asynq"
)

// ContentDecidedPayload is emitted after a lifecycle transition an owner
// should hear about.
type ContentDecidedPayload struct {
	RecordID    string `json:"record_id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Action      string `json:"action"`
	Status      string `json:"status"`
	OwnerUserID string `json:"owner_user_id"`
	ActorID     string `json:"actor_id"`
}

type BusinessReviewedPayload struct {
	BusinessID   string `json:"business_id"`
	BusinessName string `json:"business_name"`
	OwnerUserID  string `json:"owner_user_id"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
}

type RegistrationCreatedPayload struct {
	RegistrationID string `json:"registration_id"`
	RecordID       string `json:"record_id"`
	RecordTitle    string `json:"record_title"`
	OwnerUserID    string `json:"owner_user_id"`
	Name           string `json:"name"`
}

type MessageReceivedPayload struct {
	ConversationID  string `json:"conversation_id"`
	MessageID       string `json:"message_id"`
	RecipientUserID string `json:"recipient_user_id"`
	SenderID        string `json:"sender_id"`
	SenderName      string `json:"sender_name"`
	Preview         string `json:"preview"`
}

func NewContentDecidedTask(p ContentDecidedPayload) (*asynq.Task, error) {
	return task.NewJSONTask(taskname.ContentDecided, p, asynq.Queue(task.QueueDefault), asynq.MaxRetry(5))
}

func NewBusinessReviewedTask(p BusinessReviewedPayload) (*asynq.Task, error) {
	return task.NewJSONTask(taskname.BusinessReviewed, p, asynq.Queue(task.QueueDefault), asynq.MaxRetry(5))
}

func NewRegistrationCreatedTask(p RegistrationCreatedPayload) (*asynq.Task, error) {
	return task.NewJSONTask(taskname.RegistrationCreated, p, asynq.Queue(task.QueueLow), asynq.MaxRetry(3))
}

func NewMessageReceivedTask(p MessageReceivedPayload) (*asynq.Task, error) {
	return task.NewJSONTask(taskname.MessageReceived, p, asynq.Queue(task.QueueDefault), asynq.MaxRetry(3))
}
