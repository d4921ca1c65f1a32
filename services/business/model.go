package business

import (
	"time"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) String() string {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return string(s)
	default:
		return ""
	}
}

type Business struct {
	ID             string         `gorm:"column:id;primaryKey" json:"id"`
	OwnerID        string         `gorm:"column:owner_id;uniqueIndex;not null" json:"owner_id"`
	Name           string         `gorm:"column:name;not null" json:"name"`
	Slug           string         `gorm:"column:slug;index" json:"slug"`
	Description    string         `gorm:"column:description" json:"description"`
	Industry       string         `gorm:"column:industry" json:"industry"`
	Category       string         `gorm:"column:category;index" json:"category"`
	City           string         `gorm:"column:city" json:"city"`
	Area           string         `gorm:"column:area" json:"area"`
	Phone          string         `gorm:"column:phone" json:"phone"`
	Whatsapp       string         `gorm:"column:whatsapp" json:"whatsapp"`
	Website        string         `gorm:"column:website" json:"website"`
	Instagram      string         `gorm:"column:instagram" json:"instagram"`
	LogoURL        string         `gorm:"column:logo_url" json:"logo_url"`
	IsActive       bool           `gorm:"column:is_active;default:true" json:"is_active"`
	ApprovalStatus ApprovalStatus `gorm:"column:approval_status;index;not null;default:'pending'" json:"approval_status"`
	ReviewedBy     string         `gorm:"column:reviewed_by" json:"-"`
	ReviewedAt     *time.Time     `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Business) TableName() string { return "businesses" }

func (b *Business) IsApproved() bool {
	return b != nil && b.ApprovalStatus == ApprovalApproved
}

type UpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Industry    *string `json:"industry"`
	Category    *string `json:"category"`
	City        *string `json:"city"`
	Area        *string `json:"area"`
	Phone       *string `json:"phone"`
	Whatsapp    *string `json:"whatsapp"`
	Website     *string `json:"website" binding:"omitempty,url"`
	Instagram   *string `json:"instagram"`
	LogoURL     *string `json:"logo_url" binding:"omitempty,url"`
}

type ReviewRequest struct {
	Status ApprovalStatus `json:"status" binding:"required,oneof=approved rejected pending"`
	Reason string         `json:"reason" binding:"max=1000"`
}
