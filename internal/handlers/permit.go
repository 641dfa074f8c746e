// internal/handlers/permit.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pmdq/biodiversity-backend/internal/services"
	"github.com/pmdq/biodiversity-backend/internal/utils"
)

type PermitHandler struct {
	permitService   *services.PermitService
	issuanceService *services.IssuanceService
}

func NewPermitHandler(permitService *services.PermitService, issuanceService *services.IssuanceService) *PermitHandler {
	return &PermitHandler{
		permitService:   permitService,
		issuanceService: issuanceService,
	}
}

// Issue creates the draft permit for a processed application (admin)
// POST /v1/permits/issue
func (h *PermitHandler) Issue(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		PermitApplicationID uuid.UUID `json:"permit_application_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "permit_application_id is required")
		return
	}

	permit, err := h.issuanceService.IssuePermit(req.PermitApplicationID, adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, permit)
}

// List pages through permits. Clients see their own; admins see all.
// GET /v1/permits
func (h *PermitHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var clientID *uuid.UUID
	if !isAdmin(c) {
		clientID = &userID
	}

	params := utils.GetPaginationParams(c)
	permits, total, err := h.permitService.ListPermits(
		clientID, c.Query("status"), c.Query("permit_type"), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, http.StatusOK, permits, utils.BuildMeta(params, total))
}

// Get returns one permit
// GET /v1/permits/:id
func (h *PermitHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	permit, err := h.permitService.GetPermit(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	userID, _ := currentUserID(c)
	if !isAdmin(c) && permit.ClientID != userID {
		utils.ForbiddenResponse(c, "")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, permit)
}

// Sign records a permit signatory's signature on a draft permit (admin)
// POST /v1/permits/:id/sign
func (h *PermitHandler) Sign(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	signerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	signature, err := h.permitService.SignPermit(id, signerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, signature)
}

// Release hands the permit to the client and starts the validity clock
// (admin)
// POST /v1/permits/:id/release
func (h *PermitHandler) Release(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	permit, err := h.permitService.ReleasePermit(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, permit)
}

// Validate marks a released permit as used after a field check (validator)
// POST /v1/permits/validate
func (h *PermitHandler) Validate(c *gin.Context) {
	validatorID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		PermitNo string `json:"permit_no" binding:"required"`
		ORNo     string `json:"or_no" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "permit_no and or_no are required")
		return
	}

	validation, err := h.permitService.ValidateAndUse(req.PermitNo, req.ORNo, validatorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, validation)
}
