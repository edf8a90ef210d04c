// Package locale translates the notices the demo runtime shows to users.
package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text is the key.
const (
	LockedTitle   = "Emergency stop active"
	LockedMessage = "Command not available while locked."
	DepthExceeded = "Maximum call depth exceeded."
)

var supported = []language.Tag{
	language.English,
	language.Spanish,
	language.TraditionalChinese,
}

var translations = map[language.Tag]map[string]string{
	language.English: {
		LockedTitle:   LockedTitle,
		LockedMessage: LockedMessage,
		DepthExceeded: DepthExceeded,
	},
	language.Spanish: {
		LockedTitle:   "Parada de emergencia activa",
		LockedMessage: "Comando no disponible mientras está bloqueado.",
		DepthExceeded: "Se superó la profundidad máxima de llamadas.",
	},
	language.TraditionalChinese: {
		LockedTitle:   "緊急停止中",
		LockedMessage: "鎖定時無法使用此指令。",
		DepthExceeded: "超過最大呼叫深度。",
	},
}

var (
	cat     = buildCatalog()
	matcher = language.NewMatcher(supported)
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			// Keys and messages are constants above; SetString only fails on
			// malformed message syntax.
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Translator renders notices in one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Translator for lang (a BCP 47 tag such as "es" or "zh-TW").
// Unknown or unsupported languages get English.
func New(lang string) *Translator {
	tag := language.English
	if parsed, err := language.Parse(lang); err == nil {
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(cat))}
}

// Tag returns the language notices are rendered in.
func (t *Translator) Tag() language.Tag { return t.tag }

// T returns the translation of key.
func (t *Translator) T(key string, args ...any) string {
	return t.printer.Sprintf(key, args...)
}
