// Package i18n renders user-facing messages in the supported locales.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a translatable message. Arguments are always
// pre-formatted strings so numbers render identically in every locale.
type Key string

var (
	supported = []language.Tag{language.English, language.Arabic}
	matcher   = language.NewMatcher(supported)
	messages  = buildCatalog()
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range translations {
		for key, msg := range entries {
			if err := b.SetString(tag, string(key), msg); err != nil {
				panic("i18n: " + err.Error())
			}
		}
	}
	return b
}

// Localizer formats messages for one locale.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New picks the closest supported locale, defaulting to English.
func New(locale string) *Localizer {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			_, idx, conf := matcher.Match(parsed)
			if conf != language.No {
				tag = supported[idx]
			}
		}
	}
	return &Localizer{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages))}
}

// Tag returns the resolved locale.
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// Sprintf renders key with args.
func (l *Localizer) Sprintf(key Key, args ...any) string {
	if l == nil {
		return New("").Sprintf(key, args...)
	}
	return l.printer.Sprintf(string(key), args...)
}
