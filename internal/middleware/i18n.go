// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pmdq/biodiversity-backend/internal/config"
)

// I18n resolves the request language from the Accept-Language header.
func I18n(cfg *config.Config) gin.HandlerFunc {
	supported := make(map[string]bool, len(cfg.I18n.SupportedLanguages))
	for _, lang := range cfg.I18n.SupportedLanguages {
		supported[lang] = true
	}

	return func(c *gin.Context) {
		lang := cfg.I18n.DefaultLanguage

		header := c.GetHeader("Accept-Language")
		if header != "" {
			candidate := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
			candidate = strings.Split(candidate, "-")[0]
			if supported[candidate] {
				lang = candidate
			}
		}

		c.Set("lang", lang)
		c.Next()
	}
}
