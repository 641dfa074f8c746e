// internal/models/permit.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Permit is an issued permit of any kind. PermitType discriminates which of
// the kind-specific fields apply.
type Permit struct {
	BaseModel
	PermitNo   string     `json:"permit_no" gorm:"uniqueIndex;size:255"`
	PermitType PermitType `json:"permit_type" gorm:"type:varchar(50);not null;index"`
	ClientID   uuid.UUID  `json:"client_id" gorm:"type:uuid;not null;index"`
	Status     Status     `json:"status" gorm:"type:varchar(50);not null;index"`

	IssuedDate *time.Time `json:"issued_date,omitempty" gorm:"type:date"`
	ValidUntil *time.Time `json:"valid_until,omitempty" gorm:"type:date;index"`

	// Official receipt details copied from the payment at issuance.
	ORNo     string  `json:"or_no,omitempty" gorm:"size:255;index"`
	ORAmount float64 `json:"or_amount,omitempty"`

	PaymentOrderID *uuid.UUID `json:"payment_order_id,omitempty" gorm:"type:uuid"`
	InspectionID   *uuid.UUID `json:"inspection_id,omitempty" gorm:"type:uuid"`

	// WFP / WCP
	FarmName    string `json:"farm_name,omitempty" gorm:"size:255"`
	FarmAddress string `json:"farm_address,omitempty" gorm:"size:255"`

	// WCP
	CollectorsAndTrappers string `json:"names_and_addresses_of_authorized_collectors_or_trappers,omitempty" gorm:"type:text"`

	// LTP. A local transport permit references the farm and collector
	// permits it was issued under.
	WFPID             *uuid.UUID `json:"wfp_id,omitempty" gorm:"type:uuid"`
	WCPID             *uuid.UUID `json:"wcp_id,omitempty" gorm:"type:uuid"`
	TransportDate     *time.Time `json:"transport_date,omitempty" gorm:"type:date"`
	TransportLocation string     `json:"transport_location,omitempty" gorm:"size:255"`

	// Relationships
	Client           User                       `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	PaymentOrder     *PaymentOrder              `json:"payment_order,omitempty" gorm:"foreignKey:PaymentOrderID"`
	Inspection       *Inspection                `json:"inspection,omitempty" gorm:"foreignKey:InspectionID"`
	WFP              *Permit                    `json:"wfp,omitempty" gorm:"foreignKey:WFPID"`
	WCP              *Permit                    `json:"wcp,omitempty" gorm:"foreignKey:WCPID"`
	TransportEntries []TransportEntry           `json:"transport_entries,omitempty" gorm:"foreignKey:LocalTransportPermitID"`
	PermittedAnimals []PermittedToCollectAnimal `json:"permitted_animals,omitempty" gorm:"foreignKey:PermitID"`
	Validation       *Validation                `json:"validation,omitempty" gorm:"foreignKey:PermitID"`
}

// Expired reports whether the permit's validity window has lapsed as of
// today. The valid-until day itself still counts as valid. Dates are
// compared in UTC, matching the stamp written at release.
func (p *Permit) Expired(today time.Time) bool {
	if p.ValidUntil == nil {
		return false
	}
	y, m, d := today.UTC().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return p.ValidUntil.Before(midnight)
}

// CurrentStatus projects the effective status without touching storage.
// A released permit past its validity window reads as EXPIRED even before
// the sweep has persisted the transition.
func (p *Permit) CurrentStatus(today time.Time) Status {
	if p.Status == StatusReleased && p.Expired(today) {
		return StatusExpired
	}
	return p.Status
}

// PermittedToCollectAnimal is a (species, quantity) allowance frozen onto a
// collector's permit at issuance. Unlike the application's collection
// entries, these rows never change after the permit exists.
type PermittedToCollectAnimal struct {
	BaseModel
	PermitID     uuid.UUID `json:"permit_id" gorm:"type:uuid;not null;uniqueIndex:idx_permit_species"`
	SubSpeciesID uuid.UUID `json:"sub_species_id" gorm:"type:uuid;not null;uniqueIndex:idx_permit_species"`
	Quantity     int       `json:"quantity" gorm:"not null"`

	SubSpecies SubSpecies `json:"sub_species,omitempty" gorm:"foreignKey:SubSpeciesID"`
}

// Validation records the one-time use of a permit by a validator in the
// field. At most one per permit.
type Validation struct {
	BaseModel
	PermitID    uuid.UUID `json:"permit_id" gorm:"type:uuid;not null;uniqueIndex"`
	ValidatorID uuid.UUID `json:"validator_id" gorm:"type:uuid;not null"`

	Permit    *Permit `json:"permit,omitempty" gorm:"foreignKey:PermitID"`
	Validator User    `json:"validator,omitempty" gorm:"foreignKey:ValidatorID"`
}
