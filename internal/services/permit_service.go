// internal/services/permit_service.go
package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/config"
	"github.com/pmdq/biodiversity-backend/internal/database"
	"github.com/pmdq/biodiversity-backend/internal/models"
	"github.com/pmdq/biodiversity-backend/internal/utils"
)

// PermitService owns the lifecycle of issued permits: release, field
// validation and expiry. Reads never write; the sweep is the only place an
// EXPIRED status is persisted.
type PermitService struct {
	db                  *gorm.DB
	signatureService    *SignatureService
	notificationService *NotificationService
	config              *config.Config
}

func NewPermitService(db *gorm.DB, signatureService *SignatureService, notificationService *NotificationService, cfg *config.Config) *PermitService {
	return &PermitService{
		db:                  db,
		signatureService:    signatureService,
		notificationService: notificationService,
		config:              cfg,
	}
}

// GetPermit loads a permit with its relations.
func (s *PermitService) GetPermit(id uuid.UUID) (*models.Permit, error) {
	var permit models.Permit
	err := s.db.
		Preload("Client").
		Preload("PaymentOrder.Payment").
		Preload("Inspection").
		Preload("TransportEntries.SubSpecies").
		Preload("PermittedAnimals.SubSpecies").
		Preload("Validation").
		First(&permit, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &permit, nil
}

// ListPermits pages through permits, optionally scoped to one client and
// filtered by status and permit type. Statuses are projected so released
// permits past their window read as expired even before the sweep runs.
func (s *PermitService) ListPermits(clientID *uuid.UUID, status, permitType string, params utils.PaginationParams) ([]models.Permit, int64, error) {
	query := s.db.Model(&models.Permit{})
	if clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if permitType != "" {
		query = query.Where("permit_type = ?", permitType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var permits []models.Permit
	query = query.Preload("Client")
	query = utils.ApplySort(query, params, map[string]bool{"created_at": true, "status": true, "permit_type": true, "valid_until": true})
	if err := utils.ApplyPagination(query, params).Find(&permits).Error; err != nil {
		return nil, 0, err
	}

	now := time.Now()
	for i := range permits {
		permits[i].Status = permits[i].CurrentStatus(now)
	}
	return permits, total, nil
}

// SignPermit records an admin permit signatory's signature on a draft
// permit.
func (s *PermitService) SignPermit(permitID, signerID uuid.UUID) (*models.Signature, error) {
	permit, err := s.GetPermit(permitID)
	if err != nil {
		return nil, err
	}
	if permit.Status != models.StatusDraft {
		return nil, guardRejected("permit %s is no longer awaiting signatures", permit.PermitNo)
	}

	var signer models.User
	if err := s.db.First(&signer, "id = ?", signerID).Error; err != nil {
		return nil, err
	}
	if !signer.PermitSignatory {
		return nil, guardRejected("only a permit signatory may sign a permit")
	}

	return s.signatureService.Sign(models.SignatureSubjectPermit, permitID, signerID)
}

// ReleasePermit hands the permit to the client. The issued date and the
// validity window are stamped here, not at issuance, so the clock starts
// when the client actually receives the permit. Transport permits must be
// signed by a permit signatory first.
func (s *PermitService) ReleasePermit(id uuid.UUID) (*models.Permit, error) {
	permit, err := s.GetPermit(id)
	if err != nil {
		return nil, err
	}
	if permit.Status.Terminal() {
		return nil, alreadyTerminal("permit %s has reached a final state", permit.PermitNo)
	}
	if permit.Status != models.StatusDraft {
		return nil, guardRejected("only a draft permit can be released")
	}

	if permit.PermitType == models.PermitTypeLTP {
		count, err := s.signatureService.SignatureCount(models.SignatureSubjectPermit, permit.ID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, missingDependency("permit %s has not been signed by a permit signatory", permit.PermitNo)
		}
	}

	days, ok := s.config.ValidityDays(string(permit.PermitType))
	if !ok {
		return nil, integrityViolation("no validity window is configured for permit type %s", permit.PermitType)
	}

	now := time.Now()
	issued := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	validUntil := issued.AddDate(0, 0, days)

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Model(permit).Updates(map[string]interface{}{
			"status":      models.StatusReleased,
			"issued_date": issued,
			"valid_until": validUntil,
		}).Error; err != nil {
			return err
		}
		// The source application mirrors the permit once released.
		return tx.Model(&models.PermitApplication{}).
			Where("permit_id = ?", permit.ID).
			Update("status", models.StatusReleased).Error
	})
	if err != nil {
		return nil, err
	}

	permit.Status = models.StatusReleased
	permit.IssuedDate = &issued
	permit.ValidUntil = &validUntil

	go s.notificationService.NotifyPermitReleased(permit)
	return permit, nil
}

// FindByNumbers looks a permit up by its permit number and official receipt
// number, the pair printed on the physical document.
func (s *PermitService) FindByNumbers(permitNo, orNo string) (*models.Permit, error) {
	var permit models.Permit
	err := s.db.
		Preload("Client").
		Preload("PermittedAnimals.SubSpecies").
		Preload("TransportEntries.SubSpecies").
		Preload("Validation").
		Where("permit_no = ? AND or_no = ?", permitNo, orNo).
		First(&permit).Error
	if err != nil {
		return nil, err
	}
	return &permit, nil
}

// ValidateAndUse marks a released permit as used after a validator checks it
// in the field. Validating a permit that is already used by the same
// validator is a no-op and returns the existing validation.
func (s *PermitService) ValidateAndUse(permitNo, orNo string, validatorID uuid.UUID) (*models.Validation, error) {
	permit, err := s.FindByNumbers(permitNo, orNo)
	if err != nil {
		return nil, err
	}

	var validator models.User
	if err := s.db.First(&validator, "id = ?", validatorID).Error; err != nil {
		return nil, err
	}
	if validator.Role != models.UserRoleValidator && validator.Role != models.UserRoleAdmin {
		return nil, guardRejected("only a validator may validate a permit")
	}

	if permit.Validation != nil {
		if permit.Validation.ValidatorID == validatorID {
			return permit.Validation, nil
		}
		return nil, alreadyTerminal("permit %s has already been validated", permit.PermitNo)
	}

	now := time.Now()
	switch permit.CurrentStatus(now) {
	case models.StatusReleased:
		// Validatable.
	case models.StatusExpired:
		return nil, guardRejected("permit %s has expired", permit.PermitNo)
	case models.StatusUsed:
		return nil, alreadyTerminal("permit %s has already been used", permit.PermitNo)
	default:
		return nil, guardRejected("permit %s has not been released", permit.PermitNo)
	}

	validation := &models.Validation{
		PermitID:    permit.ID,
		ValidatorID: validatorID,
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(validation).Error; err != nil {
			return err
		}
		if err := tx.Model(permit).Update("status", models.StatusUsed).Error; err != nil {
			return err
		}
		return tx.Model(&models.PermitApplication{}).
			Where("permit_id = ?", permit.ID).
			Update("status", models.StatusUsed).Error
	})
	if err != nil {
		return nil, err
	}

	go s.notificationService.NotifyPermitValidated(permit, &validator)
	return validation, nil
}

// ExpireDuePermits persists the EXPIRED status for released permits whose
// validity window has lapsed, and mirrors their applications. Reads do not
// depend on the sweep having run; they project expiry themselves. The
// cutoff is UTC midnight, the same clock the release stamp uses.
func (s *PermitService) ExpireDuePermits() (int64, error) {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var due []models.Permit
	if err := s.db.Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?",
		models.StatusReleased, midnight).Find(&due).Error; err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, len(due))
	for i, permit := range due {
		ids[i] = permit.ID
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Model(&models.Permit{}).
			Where("id IN ?", ids).
			Update("status", models.StatusExpired).Error; err != nil {
			return err
		}
		return tx.Model(&models.PermitApplication{}).
			Where("permit_id IN ?", ids).
			Update("status", models.StatusExpired).Error
	})
	if err != nil {
		return 0, err
	}

	// The sweep already runs off the request path, so the notices go out
	// inline rather than on a goroutine.
	for i := range due {
		due[i].Status = models.StatusExpired
		s.notificationService.NotifyPermitExpired(&due[i])
	}

	logrus.Infof("Expired %d permit(s)", len(due))
	return int64(len(due)), nil
}
