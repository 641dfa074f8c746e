// internal/services/application_service.go
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
	"github.com/pmdq/biodiversity-backend/internal/utils"
)

// ApplicationService owns the permit application lifecycle from draft to
// acceptance. State transitions happen inside transactions; notifications
// fire only after the transaction commits.
type ApplicationService struct {
	db                  *gorm.DB
	notificationService *NotificationService
	storageService      *StorageService
	config              *config.Config
}

func NewApplicationService(db *gorm.DB, notificationService *NotificationService, storageService *StorageService, cfg *config.Config) *ApplicationService {
	return &ApplicationService{
		db:                  db,
		notificationService: notificationService,
		storageService:      storageService,
		config:              cfg,
	}
}

type CreateApplicationRequest struct {
	PermitType string `json:"permit_type" validate:"required,permit_type"`
}

type UpdateApplicationRequest struct {
	FarmName              *string    `json:"farm_name,omitempty"`
	FarmAddress           *string    `json:"farm_address,omitempty"`
	TransportDate         *time.Time `json:"transport_date,omitempty"`
	TransportLocation     *string    `json:"transport_location,omitempty"`
	CollectorsAndTrappers *string    `json:"names_and_addresses_of_authorized_collectors_or_trappers,omitempty"`
}

type LineItemRequest struct {
	SubSpeciesID uuid.UUID `json:"sub_species_id" validate:"required"`
	Quantity     int       `json:"quantity" validate:"required,min=1"`
	Description  string    `json:"description,omitempty" validate:"max=100"`
}

// inProgressStatuses are the application states that block a client from
// opening another application of the same permit type.
var inProgressStatuses = []models.Status{
	models.StatusDraft, models.StatusSubmitted, models.StatusReturned, models.StatusAccepted,
}

// Checklist loads the requirement checklist for a permit type.
func (s *ApplicationService) Checklist(permitType models.PermitType) ([]models.RequirementItem, error) {
	var list models.RequirementList
	err := s.db.Preload("Items.Requirement").Where("permit_type = ?", permitType).First(&list).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// currentPermit returns the client's released, unexpired permit of the given
// type, or nil.
func (s *ApplicationService) currentPermit(clientID uuid.UUID, permitType models.PermitType) (*models.Permit, error) {
	var permits []models.Permit
	err := s.db.Where("client_id = ? AND permit_type = ? AND status = ?",
		clientID, permitType, models.StatusReleased).Find(&permits).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range permits {
		if permits[i].CurrentStatus(now) == models.StatusReleased {
			return &permits[i], nil
		}
	}
	return nil, nil
}

// CreateApplication opens a new draft application for the client.
func (s *ApplicationService) CreateApplication(clientID uuid.UUID, req *CreateApplicationRequest) (*models.PermitApplication, error) {
	permitType := models.PermitType(req.PermitType)
	if !permitType.Valid() {
		return nil, guardRejected("unknown permit type %s", req.PermitType)
	}

	// One in-progress application per permit type per client.
	var count int64
	if err := s.db.Model(&models.PermitApplication{}).
		Where("client_id = ? AND permit_type = ? AND status IN ?", clientID, permitType, inProgressStatuses).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, guardRejected("an application for a %s is already in progress", permitType.Label())
	}

	// A transport permit presupposes the farm and collector permits.
	if permitType == models.PermitTypeLTP {
		wfp, err := s.currentPermit(clientID, models.PermitTypeWFP)
		if err != nil {
			return nil, err
		}
		if wfp == nil {
			return nil, missingDependency("a current wildlife farm permit is required before applying for transport")
		}
		wcp, err := s.currentPermit(clientID, models.PermitTypeWCP)
		if err != nil {
			return nil, err
		}
		if wcp == nil {
			return nil, missingDependency("a current wildlife collector's permit is required before applying for transport")
		}
	}

	application := &models.PermitApplication{
		ClientID:   clientID,
		PermitType: permitType,
		Status:     models.StatusDraft,
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(application).Error; err != nil {
			return err
		}
		// The number embeds the record id, so it is stamped after insert.
		application.No = s.formatNumber(permitType, application.ID, application.CreatedAt)
		return tx.Model(application).Update("no", application.No).Error
	})
	if err != nil {
		return nil, err
	}

	return application, nil
}

// formatNumber builds a document number like PMDQ-WFP-2026-08-30-1a2b3c4d.
func (s *ApplicationService) formatNumber(permitType models.PermitType, id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%02d-%s",
		s.config.Permits.RegionCode, permitType, at.Format("2006-01"), at.Day(), id.String()[:8])
}

// ListApplications pages through applications, optionally scoped to one
// client and filtered by status and permit type.
func (s *ApplicationService) ListApplications(clientID *uuid.UUID, status, permitType string, params utils.PaginationParams) ([]models.PermitApplication, int64, error) {
	query := s.db.Model(&models.PermitApplication{})
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

	var applications []models.PermitApplication
	query = query.Preload("Client")
	query = utils.ApplySort(query, params, map[string]bool{"created_at": true, "status": true, "permit_type": true})
	err := utils.ApplyPagination(query, params).Find(&applications).Error
	return applications, total, err
}

// ListSubSpecies returns the species catalog, optionally filtered by a
// case-insensitive name search.
func (s *ApplicationService) ListSubSpecies(search string) ([]models.SubSpecies, error) {
	query := s.db.Model(&models.SubSpecies{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("common_name LIKE ? OR scientific_name LIKE ?", pattern, pattern)
	}

	var species []models.SubSpecies
	err := query.Order("common_name asc").Limit(100).Find(&species).Error
	return species, err
}

// GetApplication loads an application with its line items, documents and
// remarks.
func (s *ApplicationService) GetApplication(id uuid.UUID) (*models.PermitApplication, error) {
	var application models.PermitApplication
	err := s.db.
		Preload("Client").
		Preload("TransportEntries.SubSpecies").
		Preload("CollectionEntries.SubSpecies").
		Preload("UploadedRequirements.Requirement").
		Preload("Remarks.User").
		Preload("Permit").
		First(&application, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &application, nil
}

// UpdateApplication applies client edits to a draft or returned application.
func (s *ApplicationService) UpdateApplication(id, clientID uuid.UUID, req *UpdateApplicationRequest) (*models.PermitApplication, error) {
	application, err := s.GetApplication(id)
	if err != nil {
		return nil, err
	}
	if application.ClientID != clientID {
		return nil, guardRejected("only the applicant may edit this application")
	}
	if !application.Editable() {
		return nil, guardRejected("application %s can no longer be edited", application.No)
	}

	updates := map[string]interface{}{}
	if req.FarmName != nil {
		updates["farm_name"] = *req.FarmName
	}
	if req.FarmAddress != nil {
		updates["farm_address"] = *req.FarmAddress
	}
	if req.TransportDate != nil {
		updates["transport_date"] = *req.TransportDate
	}
	if req.TransportLocation != nil {
		updates["transport_location"] = *req.TransportLocation
	}
	if req.CollectorsAndTrappers != nil {
		updates["collectors_and_trappers"] = *req.CollectorsAndTrappers
	}

	if len(updates) > 0 {
		if err := s.db.Model(application).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.GetApplication(id)
}

// AddTransportEntry adds a (species, quantity) line to a transport
// application. The species must appear on the client's current collector
// permit and the quantity must not exceed the permitted allowance.
func (s *ApplicationService) AddTransportEntry(applicationID, clientID uuid.UUID, req *LineItemRequest) (*models.TransportEntry, error) {
	application, err := s.GetApplication(applicationID)
	if err != nil {
		return nil, err
	}
	if application.ClientID != clientID {
		return nil, guardRejected("only the applicant may edit this application")
	}
	if application.PermitType != models.PermitTypeLTP {
		return nil, guardRejected("species to transport only apply to transport applications")
	}
	if !application.Editable() {
		return nil, guardRejected("application %s can no longer be edited", application.No)
	}
	if req.Quantity < 1 {
		return nil, integrityViolation("quantity must be at least 1")
	}

	for _, entry := range application.TransportEntries {
		if entry.SubSpeciesID == req.SubSpeciesID {
			return nil, integrityViolation("this species has been chosen for transport already")
		}
	}

	wcp, err := s.currentPermit(clientID, models.PermitTypeWCP)
	if err != nil {
		return nil, err
	}
	if wcp == nil {
		return nil, missingDependency("the client does not have a current wildlife collector's permit")
	}

	var permitted models.PermittedToCollectAnimal
	err = s.db.Preload("SubSpecies").
		Where("permit_id = ? AND sub_species_id = ?", wcp.ID, req.SubSpeciesID).
		First(&permitted).Error
	if err == gorm.ErrRecordNotFound {
		return nil, guardRejected("the client is not allowed to transport this species")
	}
	if err != nil {
		return nil, err
	}
	if req.Quantity > permitted.Quantity {
		return nil, guardRejected("the client is only allowed to transport a quantity of %d for the species %s",
			permitted.Quantity, permitted.SubSpecies.String())
	}

	entry := &models.TransportEntry{
		SubSpeciesID:        req.SubSpeciesID,
		PermitApplicationID: &application.ID,
		Quantity:            req.Quantity,
		Description:         req.Description,
	}
	if err := s.db.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveTransportEntry deletes a transport line while the application is
// still editable.
func (s *ApplicationService) RemoveTransportEntry(applicationID, clientID, entryID uuid.UUID) error {
	application, err := s.GetApplication(applicationID)
	if err != nil {
		return err
	}
	if application.ClientID != clientID {
		return guardRejected("only the applicant may edit this application")
	}
	if !application.Editable() {
		return guardRejected("application %s can no longer be edited", application.No)
	}

	result := s.db.Where("id = ? AND permit_application_id = ?", entryID, applicationID).
		Delete(&models.TransportEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddCollectionEntry adds a (species, quantity) line to a collector's permit
// application.
func (s *ApplicationService) AddCollectionEntry(applicationID, clientID uuid.UUID, req *LineItemRequest) (*models.CollectionEntry, error) {
	application, err := s.GetApplication(applicationID)
	if err != nil {
		return nil, err
	}
	if application.ClientID != clientID {
		return nil, guardRejected("only the applicant may edit this application")
	}
	if application.PermitType != models.PermitTypeWCP {
		return nil, guardRejected("species to collect only apply to collector's permit applications")
	}
	if !application.Editable() {
		return nil, guardRejected("application %s can no longer be edited", application.No)
	}
	if req.Quantity < 1 {
		return nil, integrityViolation("quantity must be at least 1")
	}

	for _, entry := range application.CollectionEntries {
		if entry.SubSpeciesID == req.SubSpeciesID {
			return nil, integrityViolation("this species has been chosen for collection already")
		}
	}

	entry := &models.CollectionEntry{
		SubSpeciesID:        req.SubSpeciesID,
		PermitApplicationID: &application.ID,
		Quantity:            req.Quantity,
	}
	if err := s.db.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveCollectionEntry deletes a collection line while the application is
// still editable.
func (s *ApplicationService) RemoveCollectionEntry(applicationID, clientID, entryID uuid.UUID) error {
	application, err := s.GetApplication(applicationID)
	if err != nil {
		return err
	}
	if application.ClientID != clientID {
		return guardRejected("only the applicant may edit this application")
	}
	if !application.Editable() {
		return guardRejected("application %s can no longer be edited", application.No)
	}

	result := s.db.Where("id = ? AND permit_application_id = ?", entryID, applicationID).
		Delete(&models.CollectionEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UploadRequirement stores a document against the application. A
// requirement carries at most one document; a second upload is refused
// before any file is stored.
func (s *ApplicationService) UploadRequirement(applicationID, clientID, requirementID uuid.UUID, file *multipart.FileHeader) (*models.UploadedRequirement, error) {
	application, err := s.GetApplication(applicationID)
	if err != nil {
		return nil, err
	}
	if application.ClientID != clientID {
		return nil, guardRejected("only the applicant may edit this application")
	}
	if !application.Editable() {
		return nil, guardRejected("application %s can no longer be edited", application.No)
	}

	checklist, err := s.Checklist(application.PermitType)
	if err != nil {
		return nil, err
	}
	inChecklist := false
	for _, item := range checklist {
		if item.RequirementID == requirementID {
			inChecklist = true
			break
		}
	}
	if !inChecklist {
		return nil, guardRejected("this document is not part of the checklist for a %s", application.PermitType.Label())
	}

	var count int64
	if err := s.db.Model(&models.UploadedRequirement{}).
		Where("permit_application_id = ? AND requirement_id = ?", applicationID, requirementID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, integrityViolation("a document has already been uploaded for this requirement")
	}

	key, err := s.storageService.UploadFile(file, FolderRequirements)
	if err != nil {
		return nil, err
	}

	uploaded := models.UploadedRequirement{
		PermitApplicationID: applicationID,
		RequirementID:       requirementID,
		UploadedFileKey:     key,
	}
	if err := s.db.Create(&uploaded).Error; err != nil {
		return nil, err
	}
	return &uploaded, nil
}

// NeededRequirements reports checklist completeness for the application.
func (s *ApplicationService) NeededRequirements(applicationID uuid.UUID) ([]models.NeededRequirement, error) {
	application, err := s.GetApplication(applicationID)
	if err != nil {
		return nil, err
	}
	checklist, err := s.Checklist(application.PermitType)
	if err != nil {
		return nil, err
	}
	return application.NeededRequirements(checklist), nil
}

// SubmitApplication moves a draft or returned application into review.
func (s *ApplicationService) SubmitApplication(id, clientID uuid.UUID) (*models.PermitApplication, error) {
	application, err := s.GetApplication(id)
	if err != nil {
		return nil, err
	}
	if application.ClientID != clientID {
		return nil, guardRejected("only the applicant may submit this application")
	}
	if application.Status.Terminal() {
		return nil, alreadyTerminal("application %s has reached a final state", application.No)
	}
	if !application.Editable() {
		return nil, guardRejected("application %s is not in a submittable state", application.No)
	}

	checklist, err := s.Checklist(application.PermitType)
	if err != nil {
		return nil, err
	}
	if ok, reason := application.Submittable(checklist); !ok {
		return nil, guardRejected("%s", reason)
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		return tx.Model(application).Update("status", models.StatusSubmitted).Error
	})
	if err != nil {
		return nil, err
	}
	application.Status = models.StatusSubmitted

	go s.notificationService.NotifyApplicationSubmitted(application)
	return application, nil
}

// UnsubmitApplication lets the client withdraw an application that is still
// waiting for review.
func (s *ApplicationService) UnsubmitApplication(id, clientID uuid.UUID) (*models.PermitApplication, error) {
	application, err := s.GetApplication(id)
	if err != nil {
		return nil, err
	}
	if application.ClientID != clientID {
		return nil, guardRejected("only the applicant may withdraw this application")
	}
	if application.Status != models.StatusSubmitted {
		return nil, guardRejected("only a submitted application can be withdrawn")
	}

	if err := s.db.Model(application).Update("status", models.StatusDraft).Error; err != nil {
		return nil, err
	}
	application.Status = models.StatusDraft

	go s.notificationService.NotifyApplicationUnsubmitted(application)
	return application, nil
}

// AcceptApplication moves an application to accepted. An admin may accept
// straight from draft or returned, not just after submission; completeness
// is checked either way, so an incomplete application cannot slip through.
func (s *ApplicationService) AcceptApplication(id, adminID uuid.UUID) (*models.PermitApplication, error) {
	application, err := s.GetApplication(id)
	if err != nil {
		return nil, err
	}
	if application.Status.Terminal() {
		return nil, alreadyTerminal("application %s has reached a final state", application.No)
	}
	if application.Status == models.StatusAccepted {
		return nil, guardRejected("application %s has already been accepted", application.No)
	}

	checklist, err := s.Checklist(application.PermitType)
	if err != nil {
		return nil, err
	}
	if ok, reason := application.Submittable(checklist); !ok {
		return nil, guardRejected("%s", reason)
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		return tx.Model(application).Updates(map[string]interface{}{
			"status":         models.StatusAccepted,
			"accepted_by_id": adminID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	application.Status = models.StatusAccepted
	application.AcceptedByID = &adminID

	go s.notificationService.NotifyApplicationAccepted(application)
	return application, nil
}

// ReturnApplication sends an application back to the client with remarks.
// Any application that has not reached a final state can be returned, an
// accepted one included, in which case the acceptance is revoked. Remarks
// are required so the client always learns why.
func (s *ApplicationService) ReturnApplication(id, adminID uuid.UUID, remarks string) (*models.PermitApplication, error) {
	application, err := s.GetApplication(id)
	if err != nil {
		return nil, err
	}
	if application.Status.Terminal() {
		return nil, alreadyTerminal("application %s has reached a final state", application.No)
	}
	if remarks == "" {
		return nil, guardRejected("remarks are required when returning an application")
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		remark := models.Remark{
			PermitApplicationID: application.ID,
			UserID:              &adminID,
			Content:             remarks,
		}
		if err := tx.Create(&remark).Error; err != nil {
			return err
		}
		return tx.Model(application).Updates(map[string]interface{}{
			"status":         models.StatusReturned,
			"accepted_by_id": nil,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	application.Status = models.StatusReturned
	application.AcceptedByID = nil

	go s.notificationService.NotifyApplicationReturned(application, remarks)
	return application, nil
}
