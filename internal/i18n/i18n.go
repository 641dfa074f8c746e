// internal/i18n/i18n.go
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	translations = make(map[string]map[string]string)
	once         sync.Once
)

// Load parses the embedded locale files.
func Load(languages []string) {
	once.Do(func() {
		for _, lang := range languages {
			data, err := localeFS.ReadFile(fmt.Sprintf("locales/%s.json", lang))
			if err != nil {
				logrus.Warnf("Locale %s not found: %v", lang, err)
				continue
			}

			var messages map[string]string
			if err := json.Unmarshal(data, &messages); err != nil {
				logrus.Errorf("Failed to parse locale %s: %v", lang, err)
				continue
			}
			translations[lang] = messages
		}
	})
}

// T translates a key for the given language, falling back to English and
// then to the key itself.
func T(lang, key string) string {
	if messages, ok := translations[lang]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	if messages, ok := translations["en"]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	return key
}
