// internal/services/admin_service.go
package services

import (
	"mime/multipart"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/models"
	"github.com/pmdq/biodiversity-backend/internal/utils"
)

// AdminService backs the admin dashboard: workload statistics, audit trail
// access and signing identity management.
type AdminService struct {
	db             *gorm.DB
	storageService *StorageService
}

func NewAdminService(db *gorm.DB, storageService *StorageService) *AdminService {
	return &AdminService{
		db:             db,
		storageService: storageService,
	}
}

type DashboardStats struct {
	PendingApplications  int64 `json:"pending_applications"`
	AcceptedApplications int64 `json:"accepted_applications"`
	DraftPermits         int64 `json:"draft_permits"`
	ReleasedPermits      int64 `json:"released_permits"`
	ExpiredPermits       int64 `json:"expired_permits"`
	UnreadNotifications  int64 `json:"unread_notifications"`
}

// GetDashboardStats aggregates the counters shown on the admin landing page.
func (s *AdminService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}

	s.db.Model(&models.PermitApplication{}).Where("status = ?", models.StatusSubmitted).Count(&stats.PendingApplications)
	s.db.Model(&models.PermitApplication{}).Where("status = ?", models.StatusAccepted).Count(&stats.AcceptedApplications)
	s.db.Model(&models.Permit{}).Where("status = ?", models.StatusDraft).Count(&stats.DraftPermits)
	s.db.Model(&models.Permit{}).Where("status = ?", models.StatusReleased).Count(&stats.ReleasedPermits)
	s.db.Model(&models.Permit{}).Where("status = ?", models.StatusExpired).Count(&stats.ExpiredPermits)
	s.db.Model(&models.AdminNotification{}).Where("read = ?", false).Count(&stats.UnreadNotifications)

	return stats, nil
}

// ListNotifications pages through admin notifications, newest first.
func (s *AdminService) ListNotifications(params utils.PaginationParams, unreadOnly bool) ([]models.AdminNotification, int64, error) {
	query := s.db.Model(&models.AdminNotification{})
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.AdminNotification
	err := utils.ApplyPagination(query.Order("created_at desc"), params).Find(&notifications).Error
	return notifications, total, err
}

// MarkNotificationRead flags one notification as handled.
func (s *AdminService) MarkNotificationRead(id uuid.UUID) error {
	result := s.db.Model(&models.AdminNotification{}).Where("id = ?", id).Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListAuditLogs pages through the audit trail, newest first.
func (s *AdminService) ListAuditLogs(params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	var total int64
	if err := s.db.Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	err := utils.ApplyPagination(s.db.Preload("User").Order("created_at desc"), params).Find(&logs).Error
	return logs, total, err
}

type SigningIdentityRequest struct {
	Title string `json:"title" validate:"required,max=100"`
}

// SetSigningIdentity stores a user's title and signature image, the pair
// that makes them eligible to sign documents.
func (s *AdminService) SetSigningIdentity(userID uuid.UUID, title string, image *multipart.FileHeader) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"title": title}
	if image != nil {
		key, err := s.storageService.UploadFile(image, FolderSignatures)
		if err != nil {
			return nil, err
		}
		updates["signature_image_key"] = key
	}

	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type SignatoryRolesRequest struct {
	PaymentOrderSignatory *bool `json:"payment_order_signatory,omitempty"`
	PermitSignatory       *bool `json:"permit_signatory,omitempty"`
}

// SetSignatoryRoles grants or revokes an admin's signatory roles.
func (s *AdminService) SetSignatoryRoles(userID uuid.UUID, req *SignatoryRolesRequest) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	if user.Role != models.UserRoleAdmin {
		return nil, guardRejected("signatory roles can only be granted to admins")
	}

	updates := map[string]interface{}{}
	if req.PaymentOrderSignatory != nil {
		updates["payment_order_signatory"] = *req.PaymentOrderSignatory
	}
	if req.PermitSignatory != nil {
		updates["permit_signatory"] = *req.PermitSignatory
	}

	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &user, nil
}
