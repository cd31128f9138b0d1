package richtext

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale is a content locale code such as "en" or "fr". The set is open.
type Locale string

const (
	English Locale = "en"
	French  Locale = "fr"
	Arabic  Locale = "ar"
)

// DefaultFallback is the locale consulted when the active one has no content.
const DefaultFallback = English

// Direction returns the text direction for the locale: "rtl" or "ltr".
func (l Locale) Direction() string {
	base, _, _ := strings.Cut(strings.ToLower(string(l)), "-")
	switch base {
	case "ar", "he", "fa", "ur":
		return "rtl"
	default:
		return "ltr"
	}
}

// Resolution describes which locale a value was taken from.
type Resolution struct {
	Value        Raw    `json:"-"`
	Requested    Locale `json:"requestedLocale"`
	Resolved     Locale `json:"resolvedLocale,omitempty"`
	FallbackUsed bool   `json:"fallbackUsed"`
	Missing      bool   `json:"missing"`
}

// Resolve picks the raw value for active, falling back to DefaultFallback.
func Resolve(content LocalizedContent, active Locale) Raw {
	return ResolveWithFallback(content, active, DefaultFallback)
}

// ResolveWithFallback returns content[active] when it is non-empty, otherwise
// content[fallback] when that is non-empty, otherwise nil. It selects only;
// the result still has to go through Canonicalize.
func ResolveWithFallback(content LocalizedContent, active, fallback Locale) Raw {
	return ResolveMeta(content, active, fallback).Value
}

// ResolveMeta is ResolveWithFallback with the selection details attached.
func ResolveMeta(content LocalizedContent, active, fallback Locale) Resolution {
	res := Resolution{Requested: active}
	if raw := content[active]; !isEmptyRaw(raw) {
		res.Value = raw
		res.Resolved = active
		return res
	}
	if raw := content[fallback]; !isEmptyRaw(raw) {
		res.Value = raw
		res.Resolved = fallback
		res.FallbackUsed = fallback != active
		return res
	}
	res.Missing = true
	return res
}

func isEmptyRaw(raw Raw) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case RawString:
		return v == ""
	case RawObject:
		return v == nil
	case *Document:
		return v == nil
	default:
		return false
	}
}

// NegotiateLocale picks the active locale. An explicit request (query
// parameter) wins when it matches a supported locale, then Accept-Language.
// Unmatched or malformed input lands on fallback.
func NegotiateLocale(requested, acceptLanguage string, supported []Locale, fallback Locale) Locale {
	ordered := make([]Locale, 0, len(supported)+1)
	ordered = append(ordered, fallback)
	for _, locale := range supported {
		if locale != fallback {
			ordered = append(ordered, locale)
		}
	}

	tags := make([]language.Tag, len(ordered))
	for i, locale := range ordered {
		tags[i] = language.Make(string(locale))
	}
	matcher := language.NewMatcher(tags)

	candidates := make([]string, 0, 2)
	if requested = strings.TrimSpace(requested); requested != "" {
		candidates = append(candidates, requested)
	}
	if acceptLanguage = strings.TrimSpace(acceptLanguage); acceptLanguage != "" {
		candidates = append(candidates, acceptLanguage)
	}
	if len(candidates) == 0 {
		return fallback
	}
	_, index := language.MatchStrings(matcher, candidates...)
	if index < 0 || index >= len(ordered) {
		return fallback
	}
	return ordered[index]
}

// ParseLocales splits a comma-separated list such as "en,fr,ar".
func ParseLocales(value string) []Locale {
	parts := strings.Split(value, ",")
	locales := make([]Locale, 0, len(parts))
	seen := make(map[Locale]struct{}, len(parts))
	for _, part := range parts {
		locale := Locale(strings.ToLower(strings.TrimSpace(part)))
		if locale == "" {
			continue
		}
		if _, ok := seen[locale]; ok {
			continue
		}
		seen[locale] = struct{}{}
		locales = append(locales, locale)
	}
	return locales
}
