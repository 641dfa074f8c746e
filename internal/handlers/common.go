// internal/handlers/common.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/services"
	"github.com/pmdq/biodiversity-backend/internal/utils"
)

// handleServiceError maps service failures to HTTP responses. Workflow
// refusals carry their kind, so no string matching is needed.
func handleServiceError(c *gin.Context, err error) {
	var wfErr *services.WorkflowError
	if errors.As(err, &wfErr) {
		switch wfErr.Kind {
		case services.GuardRejected:
			utils.ErrorResponse(c, http.StatusConflict, string(wfErr.Kind), wfErr.Reason)
		case services.AlreadyTerminal:
			utils.ErrorResponse(c, http.StatusConflict, string(wfErr.Kind), wfErr.Reason)
		case services.IntegrityViolation:
			utils.ErrorResponse(c, http.StatusUnprocessableEntity, string(wfErr.Kind), wfErr.Reason)
		case services.MissingDependency:
			utils.ErrorResponse(c, http.StatusPreconditionFailed, string(wfErr.Kind), wfErr.Reason)
		default:
			utils.InternalErrorResponse(c, wfErr.Reason)
		}
		return
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFoundResponse(c, "Record")
		return
	}

	utils.InternalErrorResponse(c, err.Error())
}

// currentUserID reads the authenticated user's id set by the auth
// middleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

// parseIDParam parses a uuid path parameter.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// isAdmin reports whether the authenticated user is an admin.
func isAdmin(c *gin.Context) bool {
	role, exists := c.Get("role")
	return exists && role == "ADMIN"
}
