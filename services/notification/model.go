package notification

import (
	"time"

	"gorm.io/datatypes"
)

type Kind string

const (
	KindContentApproved     Kind = "content_approved"
	KindContentRejected     Kind = "content_rejected"
	KindContentConverted    Kind = "content_converted"
	KindContentUnpublished  Kind = "content_unpublished"
	KindContentExpired      Kind = "content_expired"
	KindBusinessApproved    Kind = "business_approved"
	KindBusinessRejected    Kind = "business_rejected"
	KindRegistrationCreated Kind = "registration_created"
	KindMessageReceived     Kind = "message_received"
)

type Notification struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	UserID    string         `gorm:"column:user_id;index;not null" json:"-"`
	Kind      Kind           `gorm:"column:kind;not null" json:"kind"`
	Title     string         `gorm:"column:title" json:"title"`
	Body      string         `gorm:"column:body" json:"body"`
	SubjectID string         `gorm:"column:subject_id;index" json:"subject_id"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	ReadAt    *time.Time     `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
