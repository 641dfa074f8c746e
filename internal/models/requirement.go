// internal/models/requirement.go
package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Requirement is a document kind a client may be asked to submit, e.g. a
// phytosanitary certificate or a financial plan.
type Requirement struct {
	BaseModel
	Code           string `json:"code" gorm:"uniqueIndex;size:100;not null"`
	Label          string `json:"label" gorm:"size:255;not null"`
	ExampleFileKey string `json:"example_file_key,omitempty" gorm:"size:255"`
}

func (r *Requirement) BeforeSave(tx *gorm.DB) error {
	r.Code = strings.ReplaceAll(strings.ToUpper(r.Code), " ", "")
	return nil
}

// RequirementList is the checklist for one permit type. It is read-only
// reference data shared by every application of that type.
type RequirementList struct {
	BaseModel
	PermitType PermitType        `json:"permit_type" gorm:"type:varchar(50);uniqueIndex;not null"`
	Items      []RequirementItem `json:"items,omitempty" gorm:"foreignKey:RequirementListID"`
}

type RequirementItem struct {
	BaseModel
	RequirementListID uuid.UUID `json:"requirement_list_id" gorm:"type:uuid;not null;uniqueIndex:idx_list_requirement"`
	RequirementID     uuid.UUID `json:"requirement_id" gorm:"type:uuid;not null;uniqueIndex:idx_list_requirement"`
	Optional          bool      `json:"optional" gorm:"default:false"`

	Requirement Requirement `json:"requirement,omitempty" gorm:"foreignKey:RequirementID"`
}

// UploadedRequirement binds one submitted document to one application.
// A requirement appears at most once per application.
type UploadedRequirement struct {
	BaseModel
	PermitApplicationID uuid.UUID `json:"permit_application_id" gorm:"type:uuid;not null;uniqueIndex:idx_application_requirement"`
	RequirementID       uuid.UUID `json:"requirement_id" gorm:"type:uuid;not null;uniqueIndex:idx_application_requirement"`
	UploadedFileKey     string    `json:"uploaded_file_key" gorm:"size:255;not null"`

	Requirement Requirement `json:"requirement,omitempty" gorm:"foreignKey:RequirementID"`
}

// NeededRequirement is one row of the completeness report for an application.
type NeededRequirement struct {
	Requirement Requirement `json:"requirement"`
	Optional    bool        `json:"optional"`
	Submitted   bool        `json:"submitted"`
}
