// internal/models/application.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type PermitApplication struct {
	BaseModel
	No          string     `json:"no" gorm:"size:255;index"`
	ClientID    uuid.UUID  `json:"client_id" gorm:"type:uuid;not null;index"`
	PermitType  PermitType `json:"permit_type" gorm:"type:varchar(50);not null;index"`
	Status      Status     `json:"status" gorm:"type:varchar(50);not null;index"`
	FarmName    string     `json:"farm_name,omitempty" gorm:"size:255"`
	FarmAddress string     `json:"farm_address,omitempty" gorm:"size:255"`

	// LTP
	TransportDate     *time.Time `json:"transport_date,omitempty" gorm:"type:date"`
	TransportLocation string     `json:"transport_location,omitempty" gorm:"size:255"`

	// WCP
	CollectorsAndTrappers string `json:"names_and_addresses_of_authorized_collectors_or_trappers,omitempty" gorm:"type:text"`

	AcceptedByID *uuid.UUID `json:"accepted_by,omitempty" gorm:"type:uuid"`

	// The permit created from this application. Set at most once.
	PermitID *uuid.UUID `json:"permit_id,omitempty" gorm:"type:uuid"`

	// Relationships
	Client               User                  `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Permit               *Permit               `json:"permit,omitempty" gorm:"foreignKey:PermitID"`
	TransportEntries     []TransportEntry      `json:"transport_entries,omitempty" gorm:"foreignKey:PermitApplicationID"`
	CollectionEntries    []CollectionEntry     `json:"collection_entries,omitempty" gorm:"foreignKey:PermitApplicationID"`
	UploadedRequirements []UploadedRequirement `json:"uploaded_requirements,omitempty" gorm:"foreignKey:PermitApplicationID"`
	Remarks              []Remark              `json:"remarks,omitempty" gorm:"foreignKey:PermitApplicationID"`
}

// Editable reports whether the client may still mutate the application and
// its line items.
func (a *PermitApplication) Editable() bool {
	return a.Status == StatusDraft || a.Status == StatusReturned
}

// NeededRequirements crosses the checklist for the application's permit type
// with what has been uploaded so far. Relies on UploadedRequirements being
// preloaded.
func (a *PermitApplication) NeededRequirements(checklist []RequirementItem) []NeededRequirement {
	uploaded := make(map[uuid.UUID]bool, len(a.UploadedRequirements))
	for _, ur := range a.UploadedRequirements {
		uploaded[ur.RequirementID] = true
	}

	needed := make([]NeededRequirement, 0, len(checklist))
	for _, item := range checklist {
		needed = append(needed, NeededRequirement{
			Requirement: item.Requirement,
			Optional:    item.Optional,
			Submitted:   uploaded[item.RequirementID],
		})
	}
	return needed
}

// Submittable decides whether the application is complete enough to submit
// or accept. Checks run in order and short-circuit on the first failure; the
// returned reason names the failed check. Relies on UploadedRequirements,
// TransportEntries and CollectionEntries being preloaded.
func (a *PermitApplication) Submittable(checklist []RequirementItem) (bool, string) {
	for _, needed := range a.NeededRequirements(checklist) {
		if !needed.Optional && !needed.Submitted {
			return false, "missing required document: " + needed.Requirement.Label
		}
	}

	switch a.PermitType {
	case PermitTypeLTP:
		if len(a.TransportEntries) == 0 {
			return false, "no species to transport have been added"
		}
		if a.TransportDate == nil {
			return false, "the transport date has not been set"
		}
		if a.TransportLocation == "" {
			return false, "the transport location has not been set"
		}

	case PermitTypeWCP:
		if a.CollectorsAndTrappers == "" {
			return false, "the names and addresses of authorized collectors or trappers have not been provided"
		}
		if a.FarmName == "" {
			return false, "the farm name has not been provided"
		}
		if a.FarmAddress == "" {
			return false, "the farm address has not been provided"
		}
		if len(a.CollectionEntries) == 0 {
			return false, "no species to collect have been added"
		}

	case PermitTypeWFP:
		if a.FarmName == "" {
			return false, "the farm name has not been provided"
		}
		if a.FarmAddress == "" {
			return false, "the farm address has not been provided"
		}
	}

	return true, ""
}

// TotalTransportQuantity sums the requested transport quantities. Relies on
// TransportEntries being preloaded.
func (a *PermitApplication) TotalTransportQuantity() int {
	total := 0
	for _, entry := range a.TransportEntries {
		total += entry.Quantity
	}
	return total
}

// TransportEntry is a (species, quantity) line item requested for transport.
// Attached to the application first and re-parented onto the issued local
// transport permit at issuance.
type TransportEntry struct {
	BaseModel
	SubSpeciesID           uuid.UUID  `json:"sub_species_id" gorm:"type:uuid;not null;uniqueIndex:idx_transport_species_application"`
	PermitApplicationID    *uuid.UUID `json:"permit_application_id,omitempty" gorm:"type:uuid;uniqueIndex:idx_transport_species_application"`
	LocalTransportPermitID *uuid.UUID `json:"local_transport_permit_id,omitempty" gorm:"type:uuid;index"`
	Quantity               int        `json:"quantity" gorm:"not null"`
	Description            string     `json:"description" gorm:"size:100"`

	SubSpecies SubSpecies `json:"sub_species,omitempty" gorm:"foreignKey:SubSpeciesID"`
}

// CollectionEntry is a (species, quantity) line item requested for
// collection on a WCP application.
type CollectionEntry struct {
	BaseModel
	SubSpeciesID        uuid.UUID  `json:"sub_species_id" gorm:"type:uuid;not null;uniqueIndex:idx_collection_species_application"`
	PermitApplicationID *uuid.UUID `json:"permit_application_id,omitempty" gorm:"type:uuid;uniqueIndex:idx_collection_species_application"`
	Quantity            int        `json:"quantity" gorm:"not null"`

	SubSpecies SubSpecies `json:"sub_species,omitempty" gorm:"foreignKey:SubSpeciesID"`
}

// Remark is a reviewer note attached when an application is returned.
type Remark struct {
	BaseModel
	PermitApplicationID uuid.UUID  `json:"permit_application_id" gorm:"type:uuid;not null;index"`
	UserID              *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid"`
	Content             string     `json:"content" gorm:"type:text;not null"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
