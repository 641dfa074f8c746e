// internal/models/animals.go
package models

import "github.com/google/uuid"

// SubSpecies is reference data for the wildlife species a client may collect
// or transport.
type SubSpecies struct {
	BaseModel
	CommonName     string    `json:"common_name" gorm:"size:255;not null;index"`
	ScientificName string    `json:"scientific_name" gorm:"size:255"`
	MainSpeciesID  uuid.UUID `json:"main_species_id" gorm:"type:uuid;index"`
}

func (s *SubSpecies) String() string {
	if s.ScientificName != "" {
		return s.CommonName + " (" + s.ScientificName + ")"
	}
	return s.CommonName
}
