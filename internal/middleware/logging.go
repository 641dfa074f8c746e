// internal/middleware/logging.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/models"
)

// RequestLogger logs each request with its latency and status.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}).Info("request")
	}
}

// AuditLog records write requests in the audit trail. The row is written
// asynchronously so logging never slows the response down.
func AuditLog(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			return
		}
		if c.Writer.Status() >= 400 {
			return
		}

		entry := models.AuditLog{
			Action:       c.Request.Method + " " + c.FullPath(),
			ResourceType: c.FullPath(),
			ResourceID:   c.Param("id"),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		}

		if userID, exists := c.Get("user_id"); exists {
			if id, ok := userID.(uuid.UUID); ok {
				entry.UserID = &id
			}
		}

		go func() {
			if err := db.Create(&entry).Error; err != nil {
				logrus.Errorf("Failed to write audit log: %v", err)
			}
		}()
	}
}
