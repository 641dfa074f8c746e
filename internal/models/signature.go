// internal/models/signature.go
package models

import "github.com/google/uuid"

// Signature binds one person's signing identity to one subject record. The
// subject is named by an explicit (type, id) pair rather than a generic
// reference so the schema admits exactly the three signable kinds. A person
// signs a given subject at most once; the title and image are frozen at
// signing time so later profile edits do not rewrite history.
type Signature struct {
	BaseModel
	SubjectType SignatureSubjectType `json:"subject_type" gorm:"type:varchar(30);not null;uniqueIndex:idx_subject_person"`
	SubjectID   uuid.UUID            `json:"subject_id" gorm:"type:uuid;not null;uniqueIndex:idx_subject_person"`
	PersonID    uuid.UUID            `json:"person_id" gorm:"type:uuid;not null;uniqueIndex:idx_subject_person"`

	Title             string `json:"title" gorm:"size:100;not null"`
	SignatureImageKey string `json:"signature_image_key" gorm:"size:255;not null"`

	Person User `json:"person,omitempty" gorm:"foreignKey:PersonID"`
}
