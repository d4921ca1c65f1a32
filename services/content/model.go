package content

import (
	"encoding/json"
	"time"
)

type Kind string

const (
	KindEvent    Kind = "event"
	KindBulletin Kind = "bulletin"
)

func (k Kind) String() string {
	switch k {
	case KindEvent, KindBulletin:
		return string(k)
	default:
		return ""
	}
}

// KindFromPlural maps the URL segment ("events", "bulletins") to a Kind.
func KindFromPlural(s string) (Kind, bool) {
	switch s {
	case "events":
		return KindEvent, true
	case "bulletins":
		return KindBulletin, true
	default:
		return "", false
	}
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
)

// Terminal statuses accept no further transition.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusExpired
}

type Origin string

const (
	OriginOwner Origin = "owner"
	OriginGuest Origin = "guest"
)

// Record is an event or a bulletin. Both kinds share one table.
type Record struct {
	ID          string     `gorm:"column:id;primaryKey"`
	Kind        Kind       `gorm:"column:kind;index:idx_content_kind_status;not null"`
	BusinessID  string     `gorm:"column:business_id;index"`
	OwnerUserID string     `gorm:"column:owner_user_id;index"`
	Title       string     `gorm:"column:title;not null"`
	Description string     `gorm:"column:description"`
	Category    string     `gorm:"column:category;index"`
	Location    string     `gorm:"column:location"`
	ImageURL    string     `gorm:"column:image_url"`
	LinkURL     string     `gorm:"column:link_url"`
	Pinned      bool       `gorm:"column:pinned;default:false"`
	StartAt     *time.Time `gorm:"column:start_at"`
	EndAt       *time.Time `gorm:"column:end_at"`
	Status      Status     `gorm:"column:status;index:idx_content_kind_status;not null"`
	Origin      Origin     `gorm:"column:origin;not null;default:'owner'"`
	GuestName   string     `gorm:"column:guest_name"`
	GuestEmail  string     `gorm:"column:guest_email"`
	Version     int64      `gorm:"column:version;not null;default:1"`
	CreatedAt   time.Time  `gorm:"column:created_at;index"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (Record) TableName() string { return "content_records" }

// IsPublished is derived from Status and never stored.
func (r *Record) IsPublished() bool {
	return r != nil && r.Status == StatusPublished
}

// Visible reports whether the public may see the record.
func (r *Record) Visible() bool {
	return r.IsPublished()
}

type recordJSON struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	BusinessID  string     `json:"business_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	Location    string     `json:"location,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	LinkURL     string     `json:"link_url,omitempty"`
	Pinned      bool       `json:"pinned"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	Status      Status     `json:"status"`
	IsPublished bool       `json:"is_published"`
	Origin      Origin     `json:"origin"`
	GuestName   string     `json:"guest_name,omitempty"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MarshalJSON emits is_published alongside status. Guest emails and the
// owning user id stay server side.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:          r.ID,
		Kind:        r.Kind,
		BusinessID:  r.BusinessID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Location:    r.Location,
		ImageURL:    r.ImageURL,
		LinkURL:     r.LinkURL,
		Pinned:      r.Pinned,
		StartAt:     r.StartAt,
		EndAt:       r.EndAt,
		Status:      r.Status,
		IsPublished: r.IsPublished(),
		Origin:      r.Origin,
		GuestName:   r.GuestName,
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	})
}

// Input is the editable part of a record as accepted from clients.
type Input struct {
	Title       string     `json:"title" binding:"required,min=1,max=200"`
	Description string     `json:"description" binding:"max=10000"`
	Category    string     `json:"category" binding:"max=100"`
	Location    string     `json:"location" binding:"max=300"`
	ImageURL    string     `json:"image_url" binding:"omitempty,url"`
	LinkURL     string     `json:"link_url" binding:"omitempty,url"`
	Pinned      bool       `json:"pinned"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	GuestName   string     `json:"guest_name" binding:"max=200"`
	GuestEmail  string     `json:"guest_email" binding:"omitempty,email"`
}

// CreateInput names the owning business. Owners may leave it empty; guests
// never attach one.
type CreateInput struct {
	Input
	BusinessID string `json:"business_id"`
}

type EditInput struct {
	Input
	Version int64 `json:"version" binding:"required,min=1"`
}

type VersionInput struct {
	Version int64  `json:"version" binding:"required,min=1"`
	Reason  string `json:"reason" binding:"max=1000"`
}
