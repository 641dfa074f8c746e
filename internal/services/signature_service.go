// internal/services/signature_service.go
package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/models"
)

// SignatureService attaches signing identities to permits, payment orders
// and inspections. Signing is idempotent per (subject, person).
type SignatureService struct {
	db *gorm.DB
}

func NewSignatureService(db *gorm.DB) *SignatureService {
	return &SignatureService{db: db}
}

// subjectExists checks the subject row for the given kind.
func (s *SignatureService) subjectExists(subjectType models.SignatureSubjectType, subjectID uuid.UUID) (bool, error) {
	var count int64
	var err error

	switch subjectType {
	case models.SignatureSubjectPermit:
		err = s.db.Model(&models.Permit{}).Where("id = ?", subjectID).Count(&count).Error
	case models.SignatureSubjectPaymentOrder:
		err = s.db.Model(&models.PaymentOrder{}).Where("id = ?", subjectID).Count(&count).Error
	case models.SignatureSubjectInspection:
		err = s.db.Model(&models.Inspection{}).Where("id = ?", subjectID).Count(&count).Error
	default:
		return false, guardRejected("unknown signature subject type %s", subjectType)
	}

	return count > 0, err
}

// Sign records the person's signature on the subject. The person's title and
// signature image are copied onto the record so later profile changes do not
// rewrite signed documents. Signing the same subject twice returns the
// existing signature unchanged.
func (s *SignatureService) Sign(subjectType models.SignatureSubjectType, subjectID, personID uuid.UUID) (*models.Signature, error) {
	exists, err := s.subjectExists(subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, missingDependency("the record to sign does not exist")
	}

	var person models.User
	if err := s.db.First(&person, "id = ?", personID).Error; err != nil {
		return nil, err
	}
	if !person.CanSign() {
		return nil, guardRejected("a title and a signature image on file are required before signing")
	}

	var signature models.Signature
	err = s.db.Where("subject_type = ? AND subject_id = ? AND person_id = ?",
		subjectType, subjectID, personID).First(&signature).Error
	if err == nil {
		return &signature, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	signature = models.Signature{
		SubjectType:       subjectType,
		SubjectID:         subjectID,
		PersonID:          personID,
		Title:             person.Title,
		SignatureImageKey: person.SignatureImageKey,
	}
	if err := s.db.Create(&signature).Error; err != nil {
		return nil, err
	}
	return &signature, nil
}

// Remove withdraws a signature. Only the person who signed may remove it.
func (s *SignatureService) Remove(signatureID, personID uuid.UUID) error {
	var signature models.Signature
	if err := s.db.First(&signature, "id = ?", signatureID).Error; err != nil {
		return err
	}
	if signature.PersonID != personID {
		return guardRejected("only the signer may remove their signature")
	}
	return s.db.Delete(&signature).Error
}

// Signatures lists the signatures on a subject.
func (s *SignatureService) Signatures(subjectType models.SignatureSubjectType, subjectID uuid.UUID) ([]models.Signature, error) {
	var signatures []models.Signature
	err := s.db.Preload("Person").
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Order("created_at asc").
		Find(&signatures).Error
	return signatures, err
}

// HasSigned reports whether the person has signed the subject.
func (s *SignatureService) HasSigned(subjectType models.SignatureSubjectType, subjectID, personID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.Signature{}).
		Where("subject_type = ? AND subject_id = ? AND person_id = ?", subjectType, subjectID, personID).
		Count(&count).Error
	return count > 0, err
}

// SignatureCount counts the signatures on a subject, for quorum checks.
func (s *SignatureService) SignatureCount(subjectType models.SignatureSubjectType, subjectID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Signature{}).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Count(&count).Error
	return count, err
}
