// internal/handlers/inspection.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pmdq/biodiversity-backend/internal/services"
	"github.com/pmdq/biodiversity-backend/internal/utils"
)

type InspectionHandler struct {
	inspectionService *services.InspectionService
}

func NewInspectionHandler(inspectionService *services.InspectionService) *InspectionHandler {
	return &InspectionHandler{inspectionService: inspectionService}
}

// Schedule books a site inspection for an accepted, paid application (admin)
// POST /v1/inspections
func (h *InspectionHandler) Schedule(c *gin.Context) {
	var req services.ScheduleInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	inspection, err := h.inspectionService.ScheduleInspection(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, inspection)
}

// Get returns one inspection
// GET /v1/inspections/:id
func (h *InspectionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	inspection, err := h.inspectionService.GetInspection(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, inspection)
}

// AttachReport stores the officer's report after the visit
// POST /v1/inspections/:id/report
func (h *InspectionHandler) AttachReport(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	officerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	remarks := c.PostForm("remarks")
	file, _ := c.FormFile("file")

	inspection, err := h.inspectionService.AttachReport(id, officerID, remarks, file)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, inspection)
}

// Sign records the assigned officer's signature on the report
// POST /v1/inspections/:id/sign
func (h *InspectionHandler) Sign(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	officerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	signature, err := h.inspectionService.SignInspection(id, officerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, signature)
}
