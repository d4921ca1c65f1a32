package message

import (
	"sort"
	"strings"
	"time"
)

// MaxContentLength bounds a single message body, in characters.
const MaxContentLength = 5000

// Conversation is a private thread between two accounts. PairKey holds both
// participant ids in sorted order so a pair has at most one conversation.
type Conversation struct {
	ID             string     `gorm:"column:id;primaryKey" json:"id"`
	PairKey        string     `gorm:"column:pair_key;uniqueIndex;not null" json:"-"`
	Participant1ID string     `gorm:"column:participant1_id;index;not null" json:"participant1_id"`
	Participant2ID string     `gorm:"column:participant2_id;index;not null" json:"participant2_id"`
	LastMessageAt  *time.Time `gorm:"column:last_message_at" json:"last_message_at,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`

	Messages []Message `gorm:"foreignKey:ConversationID" json:"-"`
}

func (Conversation) TableName() string { return "conversations" }

func (c *Conversation) Has(userID string) bool {
	return userID != "" && (c.Participant1ID == userID || c.Participant2ID == userID)
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	if c.Participant1ID == userID {
		return c.Participant2ID
	}
	return c.Participant1ID
}

func pairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

type Message struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	ConversationID string    `gorm:"column:conversation_id;index;not null" json:"conversation_id"`
	SenderID       string    `gorm:"column:sender_id;index;not null" json:"sender_id"`
	Content        string    `gorm:"column:content;type:text;not null" json:"content"`
	IsRead         bool      `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

type ParticipantType string

const (
	ParticipantBusiness ParticipantType = "business"
	ParticipantUser     ParticipantType = "user"
)

// Participant is how the other side of a conversation is shown: by business
// when they own one, else by name or email.
type Participant struct {
	ID         string          `json:"id"`
	Type       ParticipantType `json:"type"`
	Name       string          `json:"name"`
	LogoURL    string          `json:"logo_url,omitempty"`
	BusinessID string          `json:"business_id,omitempty"`
}

type ConversationView struct {
	*Conversation
	OtherParticipant Participant `json:"other_participant"`
	LastMessage      string      `json:"last_message,omitempty"`
	UnreadCount      int64       `json:"unread_count"`
}

type StartRequest struct {
	OtherUserID string `json:"other_user_id" binding:"required"`
}

type SendRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Content        string `json:"content" binding:"required"`
}
