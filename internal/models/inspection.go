// internal/models/inspection.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Inspection is the site visit scheduled for an accepted and paid
// application. At most one per application; the assigned officer signs the
// report after the visit.
type Inspection struct {
	BaseModel
	No                  string     `json:"no" gorm:"size:255;index"`
	PermitApplicationID uuid.UUID  `json:"permit_application_id" gorm:"type:uuid;not null;uniqueIndex"`
	InspectingOfficerID uuid.UUID  `json:"inspecting_officer_id" gorm:"type:uuid;not null"`
	ScheduledDate       time.Time  `json:"scheduled_date" gorm:"type:date;not null"`
	ReportFileKey       string     `json:"report_file_key,omitempty" gorm:"size:255"`
	Remarks             string     `json:"remarks,omitempty" gorm:"type:text"`

	PermitApplication *PermitApplication `json:"permit_application,omitempty" gorm:"foreignKey:PermitApplicationID"`
	InspectingOfficer User               `json:"inspecting_officer,omitempty" gorm:"foreignKey:InspectingOfficerID"`
}
