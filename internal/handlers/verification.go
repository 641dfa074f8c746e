// internal/handlers/verification.go
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pmdq/biodiversity-backend/internal/services"
	"github.com/pmdq/biodiversity-backend/internal/utils"
)

// VerificationHandler serves the public permit check behind the QR code
// printed on the physical document. It never requires authentication and
// never exposes more than the holder, type, status and validity window.
type VerificationHandler struct {
	permitService *services.PermitService
}

func NewVerificationHandler(permitService *services.PermitService) *VerificationHandler {
	return &VerificationHandler{permitService: permitService}
}

type verificationPayload struct {
	PermitNo string `json:"permit_no"`
	ORNo     string `json:"or_no"`
}

// Verify resolves a base64-encoded permit reference
// GET /v1/verify/:data
func (h *VerificationHandler) Verify(c *gin.Context) {
	raw, err := base64.URLEncoding.DecodeString(c.Param("data"))
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(c.Param("data"))
	}
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed verification code")
		return
	}

	var payload verificationPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.PermitNo == "" || payload.ORNo == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed verification code")
		return
	}

	permit, err := h.permitService.FindByNumbers(payload.PermitNo, payload.ORNo)
	if err != nil {
		utils.NotFoundResponse(c, "Permit")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gin.H{
		"permit_no":   permit.PermitNo,
		"permit_type": permit.PermitType.Label(),
		"status":      permit.CurrentStatus(time.Now()),
		"holder":      permit.Client.FullName(),
		"issued_date": permit.IssuedDate,
		"valid_until": permit.ValidUntil,
	})
}
