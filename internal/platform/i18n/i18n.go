// Package i18n resolves interaction locales to supported language tags and
// message printers backed by the embedded catalogs.
package i18n

import (
	"strings"

	"github.com/louisbranch/commandeer/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	supported = buildSupported()
	matcher   = language.NewMatcher(supported)
)

func buildSupported() []language.Tag {
	base := language.MustParse(catalog.BaseLocale)
	tags := []language.Tag{base}
	for _, locale := range catalog.Default().Locales() {
		if locale == catalog.BaseLocale {
			continue
		}
		tags = append(tags, language.MustParse(locale))
	}
	return tags
}

// SupportedTags returns the catalog locales as language tags, base locale first.
func SupportedTags() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// DefaultTag returns the base locale tag.
func DefaultTag() language.Tag {
	return supported[0]
}

// ParseTag parses a locale string, reporting false for blank or invalid input.
func ParseTag(value string) (language.Tag, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return language.Und, false
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// Match resolves a platform locale (e.g. "pt-BR", "es-419", "fr") to the
// closest supported tag, falling back to the base locale.
func Match(locale string) language.Tag {
	tag, ok := ParseTag(locale)
	if !ok {
		return DefaultTag()
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return DefaultTag()
	}
	return supported[index]
}

// Printer returns a message printer for the closest supported locale.
func Printer(locale string) *message.Printer {
	return message.NewPrinter(Match(locale))
}
