package registration

import "time"

// Registration is a member of the public signing up for an event or
// bulletin.
type Registration struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	RecordID  string    `gorm:"column:record_id;index:idx_registration_record_email;not null" json:"record_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Email     string    `gorm:"column:email;index:idx_registration_record_email;not null" json:"email"`
	Phone     string    `gorm:"column:phone" json:"phone,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Registration) TableName() string { return "registrations" }

type CreateRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"max=50"`
}
