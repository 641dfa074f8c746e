// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username      string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email         string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string     `json:"-" gorm:"size:255;not null"`
	Role          UserRole   `json:"role" gorm:"type:varchar(20);not null;index"`
	Status        UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	FirstName     string     `json:"first_name" gorm:"size:30"`
	LastName      string     `json:"last_name" gorm:"size:30"`
	Address       string     `json:"address" gorm:"size:255"`
	ContactNumber string     `json:"contact_number" gorm:"size:14"`

	// Signing identity. A user without both a title and a signature image on
	// file cannot sign permits, payment orders, or inspections.
	Title             string `json:"title" gorm:"size:100"`
	SignatureImageKey string `json:"signature_image_key" gorm:"size:255"`

	// Signatory roles held by admins.
	PaymentOrderSignatory bool `json:"payment_order_signatory" gorm:"default:false"`
	PermitSignatory       bool `json:"permit_signatory" gorm:"default:false"`

	ProfileData JSONB      `json:"profile_data" gorm:"type:jsonb"`
	LastLoginAt *time.Time `json:"last_login_at"`

	// Relationships
	Applications []PermitApplication `json:"applications,omitempty" gorm:"foreignKey:ClientID"`
	Permits      []Permit            `json:"permits,omitempty" gorm:"foreignKey:ClientID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// CanSign reports whether the user has a complete signing identity on file.
func (u *User) CanSign() bool {
	return u.Title != "" && u.SignatureImageKey != ""
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}
