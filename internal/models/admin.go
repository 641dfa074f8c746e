// internal/models/admin.go
package models

import "github.com/google/uuid"

// AuditLog tracks write requests against the API.
type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50"`
	ResourceID   string     `json:"resource_id" gorm:"size:255"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"size:500"`
	Details      JSONB      `json:"details" gorm:"type:jsonb"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// AdminNotification is an in-app notice surfaced on the admin dashboard,
// created alongside workflow events such as submissions and payments.
type AdminNotification struct {
	BaseModel
	Type     string `json:"type" gorm:"size:50;not null;index"`
	Title    string `json:"title" gorm:"size:255;not null"`
	Message  string `json:"message" gorm:"type:text"`
	Data     JSONB  `json:"data" gorm:"type:jsonb"`
	Priority string `json:"priority" gorm:"size:20;default:'medium'"`
	Read     bool   `json:"read" gorm:"default:false;index"`
}
