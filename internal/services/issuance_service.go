// internal/services/issuance_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/config"
	"github.com/pmdq/biodiversity-backend/internal/database"
	"github.com/pmdq/biodiversity-backend/internal/models"
)

// IssuanceService turns a fully processed application into a draft permit.
// Issuance is a single transaction; it either creates the whole permit with
// its allowances and back-reference, or nothing.
type IssuanceService struct {
	db                  *gorm.DB
	paymentService      *PaymentService
	inspectionService   *InspectionService
	applicationService  *ApplicationService
	notificationService *NotificationService
	config              *config.Config
}

func NewIssuanceService(db *gorm.DB, paymentService *PaymentService, inspectionService *InspectionService, applicationService *ApplicationService, notificationService *NotificationService, cfg *config.Config) *IssuanceService {
	return &IssuanceService{
		db:                  db,
		paymentService:      paymentService,
		inspectionService:   inspectionService,
		applicationService:  applicationService,
		notificationService: notificationService,
		config:              cfg,
	}
}

// IssuePermit creates the draft permit for an accepted, paid, inspected
// application. Preconditions are checked in order so the caller always
// learns the earliest unmet step.
func (s *IssuanceService) IssuePermit(applicationID, adminID uuid.UUID) (*models.Permit, error) {
	application, err := s.applicationService.GetApplication(applicationID)
	if err != nil {
		return nil, err
	}

	if application.PermitID != nil {
		return nil, alreadyTerminal("a permit has already been issued for application %s", application.No)
	}
	if application.Status.Terminal() {
		return nil, alreadyTerminal("application %s has reached a final state", application.No)
	}
	if application.Status != models.StatusAccepted {
		return nil, guardRejected("only an accepted application can be issued a permit")
	}

	order, err := s.paymentService.GetPaymentOrderByApplication(application.ID)
	if err == gorm.ErrRecordNotFound {
		return nil, missingDependency("no payment order has been prepared for application %s", application.No)
	}
	if err != nil {
		return nil, err
	}
	if !order.Paid() {
		return nil, missingDependency("the payment order for application %s has not been settled", application.No)
	}

	inspection, err := s.inspectionService.GetInspectionByApplication(application.ID)
	if err == gorm.ErrRecordNotFound {
		return nil, missingDependency("no inspection has been scheduled for application %s", application.No)
	}
	if err != nil {
		return nil, err
	}
	signed, err := s.inspectionService.Signed(inspection)
	if err != nil {
		return nil, err
	}
	if !signed {
		return nil, missingDependency("the inspection for application %s has not been signed by the officer", application.No)
	}

	permit := &models.Permit{
		PermitType:     application.PermitType,
		ClientID:       application.ClientID,
		Status:         models.StatusDraft,
		PaymentOrderID: &order.ID,
		InspectionID:   &inspection.ID,
		ORNo:           order.Payment.ReceiptNo,
		ORAmount:       order.Payment.Amount,
	}

	switch application.PermitType {
	case models.PermitTypeWFP:
		permit.FarmName = application.FarmName
		permit.FarmAddress = application.FarmAddress

	case models.PermitTypeWCP:
		permit.FarmName = application.FarmName
		permit.FarmAddress = application.FarmAddress
		permit.CollectorsAndTrappers = application.CollectorsAndTrappers

	case models.PermitTypeLTP:
		wfp, err := s.applicationService.currentPermit(application.ClientID, models.PermitTypeWFP)
		if err != nil {
			return nil, err
		}
		if wfp == nil {
			return nil, missingDependency("the client no longer holds a current wildlife farm permit")
		}
		wcp, err := s.applicationService.currentPermit(application.ClientID, models.PermitTypeWCP)
		if err != nil {
			return nil, err
		}
		if wcp == nil {
			return nil, missingDependency("the client no longer holds a current wildlife collector's permit")
		}
		permit.WFPID = &wfp.ID
		permit.WCPID = &wcp.ID
		permit.TransportDate = application.TransportDate
		permit.TransportLocation = application.TransportLocation
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(permit).Error; err != nil {
			return err
		}
		permit.PermitNo = s.formatPermitNumber(permit.PermitType, permit.ID, permit.CreatedAt)
		if err := tx.Model(permit).Update("permit_no", permit.PermitNo).Error; err != nil {
			return err
		}

		switch application.PermitType {
		case models.PermitTypeWCP:
			// Freeze the requested collection lines as the permit's
			// allowances.
			for _, entry := range application.CollectionEntries {
				allowance := models.PermittedToCollectAnimal{
					PermitID:     permit.ID,
					SubSpeciesID: entry.SubSpeciesID,
					Quantity:     entry.Quantity,
				}
				if err := tx.Create(&allowance).Error; err != nil {
					return err
				}
			}

		case models.PermitTypeLTP:
			// Re-parent the transport lines onto the issued permit.
			if err := tx.Model(&models.TransportEntry{}).
				Where("permit_application_id = ?", application.ID).
				Update("local_transport_permit_id", permit.ID).Error; err != nil {
				return err
			}
		}

		return tx.Model(application).Update("permit_id", permit.ID).Error
	})
	if err != nil {
		return nil, err
	}

	if application.PermitType == models.PermitTypeLTP {
		go s.notificationService.NotifyPermitAwaitingSignatures(permit)
	}

	return permit, nil
}

// formatPermitNumber builds a permit number like PMDQ-LTP-2026-08-30-1a2b3c4d.
func (s *IssuanceService) formatPermitNumber(permitType models.PermitType, id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%02d-%s",
		s.config.Permits.RegionCode, permitType, at.Format("2006-01"), at.Day(), id.String()[:8])
}
