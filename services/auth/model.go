package auth

import (
	"time"

	"chamber122/pkg/session"
)

const MinPasswordLength = 6

type User struct {
	ID           string       `gorm:"column:id;primaryKey" json:"id"`
	Email        string       `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string       `gorm:"column:password_hash;not null" json:"-"`
	Name         string       `gorm:"column:name" json:"name,omitempty"`
	Phone        string       `gorm:"column:phone" json:"phone,omitempty"`
	Role         session.Role `gorm:"column:role;not null;default:'msme'" json:"role"`
	CreatedAt    time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }

type SignupRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	Name         string `json:"name" binding:"max=200"`
	Phone        string `json:"phone" binding:"max=50"`
	BusinessName string `json:"business_name" binding:"max=200"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
