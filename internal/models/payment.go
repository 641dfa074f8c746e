// internal/models/payment.go
package models

import "github.com/google/uuid"

// PaymentOrder is the bill prepared by an admin for an accepted application.
// It needs two distinct signatories, the preparer and an approver, before
// the client can pay against it.
type PaymentOrder struct {
	BaseModel
	No                  string     `json:"no" gorm:"size:255;index"`
	PermitApplicationID uuid.UUID  `json:"permit_application_id" gorm:"type:uuid;not null;uniqueIndex"`
	PreparedByID        uuid.UUID  `json:"prepared_by" gorm:"type:uuid;not null"`
	ApprovedByID        *uuid.UUID `json:"approved_by,omitempty" gorm:"type:uuid"`

	// Relationships
	PermitApplication *PermitApplication `json:"permit_application,omitempty" gorm:"foreignKey:PermitApplicationID"`
	PreparedBy        User               `json:"prepared_by_user,omitempty" gorm:"foreignKey:PreparedByID"`
	ApprovedBy        *User              `json:"approved_by_user,omitempty" gorm:"foreignKey:ApprovedByID"`
	Items             []ORItem           `json:"items,omitempty" gorm:"foreignKey:PaymentOrderID"`
	Payment           *Payment           `json:"payment,omitempty" gorm:"foreignKey:PaymentOrderID"`
}

// Total sums the line items. Relies on Items being preloaded.
func (po *PaymentOrder) Total() float64 {
	total := 0.0
	for _, item := range po.Items {
		total += item.Amount
	}
	return total
}

// Ready reports whether the order carries the required pair of distinct
// signatories and may be paid against.
func (po *PaymentOrder) Ready() bool {
	return po.ApprovedByID != nil && *po.ApprovedByID != po.PreparedByID
}

// Paid reports whether a payment has been recorded against the order.
// Relies on Payment being preloaded.
func (po *PaymentOrder) Paid() bool {
	return po.Payment != nil
}

// ORItem is one fee line on a payment order.
type ORItem struct {
	BaseModel
	PaymentOrderID uuid.UUID `json:"payment_order_id" gorm:"type:uuid;not null;index"`
	LegalBasis     string    `json:"legal_basis" gorm:"size:255"`
	Description    string    `json:"description" gorm:"size:255;not null"`
	Amount         float64   `json:"amount" gorm:"not null"`
}

// Payment is the settled receipt for a payment order. At most one per order.
type Payment struct {
	BaseModel
	PaymentOrderID   uuid.UUID   `json:"payment_order_id" gorm:"type:uuid;not null;uniqueIndex"`
	ReceiptNo        string      `json:"receipt_no" gorm:"size:255;not null;index"`
	Amount           float64     `json:"amount" gorm:"not null"`
	PaymentType      PaymentType `json:"payment_type" gorm:"type:varchar(20);not null"`
	PaymentReference string      `json:"payment_reference,omitempty" gorm:"size:255"`
	RecordedByID     *uuid.UUID  `json:"recorded_by,omitempty" gorm:"type:uuid"`

	RecordedBy *User `json:"recorded_by_user,omitempty" gorm:"foreignKey:RecordedByID"`
}
