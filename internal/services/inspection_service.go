// internal/services/inspection_service.go
package services

import (
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/config"
	"github.com/pmdq/biodiversity-backend/internal/database"
	"github.com/pmdq/biodiversity-backend/internal/models"
)

// InspectionService schedules site inspections for accepted, paid
// applications and records the signed report.
type InspectionService struct {
	db                  *gorm.DB
	paymentService      *PaymentService
	signatureService    *SignatureService
	storageService      *StorageService
	notificationService *NotificationService
	config              *config.Config
}

func NewInspectionService(db *gorm.DB, paymentService *PaymentService, signatureService *SignatureService, storageService *StorageService, notificationService *NotificationService, cfg *config.Config) *InspectionService {
	return &InspectionService{
		db:                  db,
		paymentService:      paymentService,
		signatureService:    signatureService,
		storageService:      storageService,
		notificationService: notificationService,
		config:              cfg,
	}
}

type ScheduleInspectionRequest struct {
	PermitApplicationID uuid.UUID `json:"permit_application_id" validate:"required"`
	InspectingOfficerID uuid.UUID `json:"inspecting_officer_id" validate:"required"`
	ScheduledDate       time.Time `json:"scheduled_date" validate:"required"`
}

// ScheduleInspection books the site visit. The application must be accepted
// and paid for, and can carry at most one inspection.
func (s *InspectionService) ScheduleInspection(req *ScheduleInspectionRequest) (*models.Inspection, error) {
	var application models.PermitApplication
	if err := s.db.First(&application, "id = ?", req.PermitApplicationID).Error; err != nil {
		return nil, err
	}
	if application.Status != models.StatusAccepted {
		return nil, guardRejected("an inspection requires an accepted application")
	}

	paid, err := s.paymentService.IsPaid(application.ID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, missingDependency("the application's payment order has not been settled")
	}

	var count int64
	if err := s.db.Model(&models.Inspection{}).
		Where("permit_application_id = ?", application.ID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, integrityViolation("an inspection already exists for application %s", application.No)
	}

	var officer models.User
	if err := s.db.First(&officer, "id = ?", req.InspectingOfficerID).Error; err != nil {
		return nil, err
	}
	if officer.Role != models.UserRoleAdmin {
		return nil, guardRejected("the inspecting officer must be an admin")
	}

	inspection := &models.Inspection{
		PermitApplicationID: application.ID,
		InspectingOfficerID: req.InspectingOfficerID,
		ScheduledDate:       req.ScheduledDate,
	}
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(inspection).Error; err != nil {
			return err
		}
		// The number embeds the record id, so it is stamped after insert.
		inspection.No = fmt.Sprintf("%s-INSP-%s-%s",
			s.config.Permits.RegionCode, inspection.CreatedAt.Format("2006-01"), inspection.ID.String()[:8])
		return tx.Model(inspection).Update("no", inspection.No).Error
	})
	if err != nil {
		return nil, err
	}

	go s.notificationService.NotifyInspectionScheduled(inspection, &application)
	return inspection, nil
}

// GetInspection loads an inspection with its officer and application.
func (s *InspectionService) GetInspection(id uuid.UUID) (*models.Inspection, error) {
	var inspection models.Inspection
	err := s.db.
		Preload("InspectingOfficer").
		Preload("PermitApplication").
		First(&inspection, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inspection, nil
}

// GetInspectionByApplication loads the inspection for an application.
func (s *InspectionService) GetInspectionByApplication(applicationID uuid.UUID) (*models.Inspection, error) {
	var inspection models.Inspection
	err := s.db.
		Preload("InspectingOfficer").
		First(&inspection, "permit_application_id = ?", applicationID).Error
	if err != nil {
		return nil, err
	}
	return &inspection, nil
}

// AttachReport stores the inspection report written after the visit.
func (s *InspectionService) AttachReport(id, officerID uuid.UUID, remarks string, report *multipart.FileHeader) (*models.Inspection, error) {
	inspection, err := s.GetInspection(id)
	if err != nil {
		return nil, err
	}
	if inspection.InspectingOfficerID != officerID {
		return nil, guardRejected("only the assigned officer may file the report")
	}

	updates := map[string]interface{}{"remarks": remarks}
	if report != nil {
		key, err := s.storageService.UploadFile(report, FolderReports)
		if err != nil {
			return nil, err
		}
		updates["report_file_key"] = key
	}

	if err := s.db.Model(inspection).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetInspection(id)
}

// SignInspection records the assigned officer's signature on the report.
// Signing again is idempotent and does not renotify.
func (s *InspectionService) SignInspection(id, officerID uuid.UUID) (*models.Signature, error) {
	inspection, err := s.GetInspection(id)
	if err != nil {
		return nil, err
	}
	if inspection.InspectingOfficerID != officerID {
		return nil, guardRejected("only the assigned officer may sign the inspection")
	}

	alreadySigned, err := s.signatureService.HasSigned(models.SignatureSubjectInspection, inspection.ID, officerID)
	if err != nil {
		return nil, err
	}

	signature, err := s.signatureService.Sign(models.SignatureSubjectInspection, inspection.ID, officerID)
	if err != nil {
		return nil, err
	}

	if !alreadySigned {
		go s.notificationService.NotifyInspectionSigned(inspection)
	}
	return signature, nil
}

// Signed reports whether the assigned officer has signed the inspection.
func (s *InspectionService) Signed(inspection *models.Inspection) (bool, error) {
	return s.signatureService.HasSigned(
		models.SignatureSubjectInspection, inspection.ID, inspection.InspectingOfficerID)
}
