// internal/database/seed.go
package database

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/models"
)

// Seed creates the default admin account, the requirement catalog and the
// per-permit-type checklists if they do not exist yet.
func Seed(db *gorm.DB) error {
	if err := seedAdmin(db); err != nil {
		return err
	}
	if err := seedRequirements(db); err != nil {
		return err
	}
	return seedChecklists(db)
}

func seedAdmin(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	admin := models.User{
		Username: "admin",
		Email:    "admin@biodiversity.gov.ph",
		Role:     models.UserRoleAdmin,
		Status:   models.UserStatusActive,
	}
	if err := admin.SetPassword("ChangeMe123!"); err != nil {
		return err
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logrus.Warn("Default admin account created, change the password immediately")
	return nil
}

type seedRequirement struct {
	code  string
	label string
}

var requirementCatalog = []seedRequirement{
	{"PRIOR_CLEARANCE_FROM_AFFECTED_COMMUNITIES", "Prior clearance from affected communities"},
	{"CERT_OF_REGISTRATION", "Certificate of registration"},
	{"SCIENTIFIC_EXPERTISE_PROOF", "Proof of scientific expertise"},
	{"FINANCIAL_PLAN", "Financial plan"},
	{"PROPOSED_FACILITY_DESIGN", "Proposed facility design"},
	{"LETTER_OF_COMMITMENT", "Letter of commitment"},
	{"CITIZENSHIP", "Proof of citizenship"},
	{"DOCUMENTS_SUPPORTING_LEGAL_POSSESSION_OF_WILDLIFE", "Documents supporting legal possession of wildlife"},
	{"PHYTOSANITARY_OR_VETERINARY_CERT", "Phytosanitary or veterinary certificate"},
	{"ACQUISITION_PROOF_OR_DEEDS_OF_DONATION", "Proof of acquisition or deeds of donation"},
	{"ENDORSEMENT_LETTER", "Endorsement letter"},
	{"COPY_OF_RESEARCH_THESIS_DISSERTATION", "Copy of research thesis or dissertation"},
}

func seedRequirements(db *gorm.DB) error {
	for _, entry := range requirementCatalog {
		var existing models.Requirement
		err := db.Where("code = ?", entry.code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&models.Requirement{Code: entry.code, Label: entry.label}).Error; err != nil {
			return err
		}
	}
	return nil
}

// checklistCatalog maps each permit type to its requirement codes. Optional
// codes are marked with a leading "?".
var checklistCatalog = map[models.PermitType][]string{
	models.PermitTypeWFP: {
		"PRIOR_CLEARANCE_FROM_AFFECTED_COMMUNITIES",
		"CERT_OF_REGISTRATION",
		"FINANCIAL_PLAN",
		"PROPOSED_FACILITY_DESIGN",
		"CITIZENSHIP",
		"DOCUMENTS_SUPPORTING_LEGAL_POSSESSION_OF_WILDLIFE",
	},
	models.PermitTypeWCP: {
		"PRIOR_CLEARANCE_FROM_AFFECTED_COMMUNITIES",
		"CERT_OF_REGISTRATION",
		"CITIZENSHIP",
		"?SCIENTIFIC_EXPERTISE_PROOF",
	},
	models.PermitTypeLTP: {
		"PHYTOSANITARY_OR_VETERINARY_CERT",
		"ACQUISITION_PROOF_OR_DEEDS_OF_DONATION",
	},
	models.PermitTypeCWR: {
		"DOCUMENTS_SUPPORTING_LEGAL_POSSESSION_OF_WILDLIFE",
		"ACQUISITION_PROOF_OR_DEEDS_OF_DONATION",
		"CITIZENSHIP",
	},
	models.PermitTypeGP: {
		"ENDORSEMENT_LETTER",
		"LETTER_OF_COMMITMENT",
		"?COPY_OF_RESEARCH_THESIS_DISSERTATION",
	},
}

func seedChecklists(db *gorm.DB) error {
	for permitType, codes := range checklistCatalog {
		var list models.RequirementList
		err := db.Where("permit_type = ?", permitType).First(&list).Error
		if err == gorm.ErrRecordNotFound {
			list = models.RequirementList{PermitType: permitType}
			if err := db.Create(&list).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		for _, code := range codes {
			optional := false
			if code[0] == '?' {
				optional = true
				code = code[1:]
			}

			var req models.Requirement
			if err := db.Where("code = ?", code).First(&req).Error; err != nil {
				return err
			}

			var item models.RequirementItem
			err := db.Where("requirement_list_id = ? AND requirement_id = ?", list.ID, req.ID).First(&item).Error
			if err == gorm.ErrRecordNotFound {
				item = models.RequirementItem{
					RequirementListID: list.ID,
					RequirementID:     req.ID,
					Optional:          optional,
				}
				if err := db.Create(&item).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
		}
	}
	return nil
}
