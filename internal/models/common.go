// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns an ID before insert, keeping numbering code able to
// read it within the creating transaction.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if str, isStr := value.(string); isStr {
			bytes = []byte(str)
		} else {
			return nil
		}
	}

	return json.Unmarshal(bytes, j)
}

// Enums

type UserRole string

const (
	UserRoleClient    UserRole = "CLIENT"
	UserRoleAdmin     UserRole = "ADMIN"
	UserRoleValidator UserRole = "VALIDATOR"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// Status is the shared vocabulary for permit applications and issued permits.
// Applications move through DRAFT/SUBMITTED/RETURNED/ACCEPTED and mirror
// their permit once one is released; permit records themselves only ever
// hold DRAFT/RELEASED/USED/EXPIRED.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusReturned  Status = "RETURNED"
	StatusAccepted  Status = "ACCEPTED"
	StatusReleased  Status = "RELEASED"
	StatusUsed      Status = "USED"
	StatusExpired   Status = "EXPIRED"
)

// Terminal reports whether no workflow transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusReleased || s == StatusUsed || s == StatusExpired
}

type PermitType string

const (
	PermitTypeWFP PermitType = "WFP"
	PermitTypeWCP PermitType = "WCP"
	PermitTypeLTP PermitType = "LTP"
	PermitTypeCWR PermitType = "CWR"
	PermitTypeGP  PermitType = "GP"
)

var permitTypeLabels = map[PermitType]string{
	PermitTypeWFP: "Wildlife Farm Permit",
	PermitTypeWCP: "Wildlife Collector's Permit",
	PermitTypeLTP: "Local Transport Permit",
	PermitTypeCWR: "Certificate of Wildlife Registration",
	PermitTypeGP:  "Gratuitous Permit",
}

func (t PermitType) Label() string {
	if label, ok := permitTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

func (t PermitType) Valid() bool {
	_, ok := permitTypeLabels[t]
	return ok
}

func PermitTypes() []PermitType {
	return []PermitType{
		PermitTypeWFP, PermitTypeWCP, PermitTypeLTP, PermitTypeCWR, PermitTypeGP,
	}
}

type PaymentType string

const (
	PaymentTypeOTC    PaymentType = "OTC"
	PaymentTypeOnline PaymentType = "ONLINE"
)

// SignatureSubjectType is the explicit union of record kinds a signature can
// be attached to.
type SignatureSubjectType string

const (
	SignatureSubjectPermit       SignatureSubjectType = "permit"
	SignatureSubjectPaymentOrder SignatureSubjectType = "payment_order"
	SignatureSubjectInspection   SignatureSubjectType = "inspection"
)
