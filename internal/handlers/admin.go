// internal/handlers/admin.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pmdq/biodiversity-backend/internal/services"
	"github.com/pmdq/biodiversity-backend/internal/utils"
)

type AdminHandler struct {
	adminService  *services.AdminService
	permitService *services.PermitService
}

func NewAdminHandler(adminService *services.AdminService, permitService *services.PermitService) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		permitService: permitService,
	}
}

// Dashboard returns the admin landing page counters
// GET /v1/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, stats)
}

// ListNotifications pages through admin notifications
// GET /v1/admin/notifications
func (h *AdminHandler) ListNotifications(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.adminService.ListNotifications(params, unreadOnly)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, http.StatusOK, notifications, utils.BuildMeta(params, total))
}

// MarkNotificationRead flags a notification as handled
// POST /v1/admin/notifications/:id/read
func (h *AdminHandler) MarkNotificationRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.MarkNotificationRead(id); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gin.H{"read": true})
}

// ListAuditLogs pages through the audit trail
// GET /v1/admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	logs, total, err := h.adminService.ListAuditLogs(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, http.StatusOK, logs, utils.BuildMeta(params, total))
}

// SetSigningIdentity stores a user's title and signature image
// POST /v1/admin/users/:id/signing-identity
func (h *AdminHandler) SetSigningIdentity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	title := c.PostForm("title")
	if title == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "title is required")
		return
	}
	image, _ := c.FormFile("signature_image")

	user, err := h.adminService.SetSigningIdentity(id, title, image)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, user)
}

// SetSignatoryRoles grants or revokes signatory roles
// PATCH /v1/admin/users/:id/signatory-roles
func (h *AdminHandler) SetSignatoryRoles(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.SignatoryRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, err := h.adminService.SetSignatoryRoles(id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, user)
}

// RunExpirySweep expires released permits past their validity window
// POST /v1/admin/permits/expire-due
func (h *AdminHandler) RunExpirySweep(c *gin.Context) {
	expired, err := h.permitService.ExpireDuePermits()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gin.H{"expired": expired})
}
