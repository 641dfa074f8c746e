// internal/handlers/application.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pmdq/biodiversity-backend/internal/services"
	"github.com/pmdq/biodiversity-backend/internal/utils"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

func NewApplicationHandler(applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// Create opens a new draft application
// POST /v1/applications
func (h *ApplicationHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	application, err := h.applicationService.CreateApplication(userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, application)
}

// List pages through applications. Clients see their own; admins see all.
// GET /v1/applications
func (h *ApplicationHandler) List(c *gin.Context) {
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
	applications, total, err := h.applicationService.ListApplications(
		clientID, c.Query("status"), c.Query("permit_type"), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, http.StatusOK, applications, utils.BuildMeta(params, total))
}

// Get returns one application with its line items and documents
// GET /v1/applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	application, err := h.applicationService.GetApplication(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	userID, _ := currentUserID(c)
	if !isAdmin(c) && application.ClientID != userID {
		utils.ForbiddenResponse(c, "")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, application)
}

// Update applies client edits to a draft or returned application
// PATCH /v1/applications/:id
func (h *ApplicationHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	application, err := h.applicationService.UpdateApplication(id, userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, application)
}

// AddTransportEntry adds a species line to a transport application
// POST /v1/applications/:id/transport-entries
func (h *ApplicationHandler) AddTransportEntry(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.LineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	entry, err := h.applicationService.AddTransportEntry(id, userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, entry)
}

// RemoveTransportEntry deletes a species line from a transport application
// DELETE /v1/applications/:id/transport-entries/:entry_id
func (h *ApplicationHandler) RemoveTransportEntry(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entryID, ok := parseIDParam(c, "entry_id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.applicationService.RemoveTransportEntry(id, userID, entryID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gin.H{"deleted": true})
}

// AddCollectionEntry adds a species line to a collector's permit application
// POST /v1/applications/:id/collection-entries
func (h *ApplicationHandler) AddCollectionEntry(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.LineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	entry, err := h.applicationService.AddCollectionEntry(id, userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, entry)
}

// RemoveCollectionEntry deletes a species line from a collector's permit
// application
// DELETE /v1/applications/:id/collection-entries/:entry_id
func (h *ApplicationHandler) RemoveCollectionEntry(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entryID, ok := parseIDParam(c, "entry_id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.applicationService.RemoveCollectionEntry(id, userID, entryID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gin.H{"deleted": true})
}

// UploadRequirement stores a checklist document against the application
// POST /v1/applications/:id/requirements/:requirement_id
func (h *ApplicationHandler) UploadRequirement(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	requirementID, ok := parseIDParam(c, "requirement_id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "A file upload is required")
		return
	}

	uploaded, err := h.applicationService.UploadRequirement(id, userID, requirementID, file)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, uploaded)
}

// NeededRequirements reports checklist completeness
// GET /v1/applications/:id/requirements
func (h *ApplicationHandler) NeededRequirements(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	needed, err := h.applicationService.NeededRequirements(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, needed)
}

// Submit moves the application into review
// POST /v1/applications/:id/submit
func (h *ApplicationHandler) Submit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	application, err := h.applicationService.SubmitApplication(id, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, application)
}

// Unsubmit withdraws a submitted application
// POST /v1/applications/:id/unsubmit
func (h *ApplicationHandler) Unsubmit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	application, err := h.applicationService.UnsubmitApplication(id, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, application)
}

// Accept moves a submitted application to accepted (admin)
// POST /v1/applications/:id/accept
func (h *ApplicationHandler) Accept(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	application, err := h.applicationService.AcceptApplication(id, adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, application)
}

// Return sends a submitted application back with remarks (admin)
// POST /v1/applications/:id/return
func (h *ApplicationHandler) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		Remarks string `json:"remarks" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "remarks is required")
		return
	}

	application, err := h.applicationService.ReturnApplication(id, adminID, req.Remarks)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, application)
}

// ListSubSpecies returns the species catalog
// GET /v1/sub-species
func (h *ApplicationHandler) ListSubSpecies(c *gin.Context) {
	species, err := h.applicationService.ListSubSpecies(c.Query("search"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, species)
}
