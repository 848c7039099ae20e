package resolution

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// cherryColorVocabulary lists the bare color tokens that map onto the
// Cherry MX family when the implicit brand is Cherry.
var cherryColorVocabulary = map[string]struct{}{
	"red":    {},
	"black":  {},
	"blue":   {},
	"brown":  {},
	"clear":  {},
	"green":  {},
	"grey":   {},
	"gray":   {},
	"silver": {},
	"speed":  {},
	"white":  {},
	"silent": {},
}

// CompleteBrand prefixes an implicit manufacturer/family onto a
// brand-ambiguous fragment. It is deterministic and has no failure mode:
//   - fragments already containing the brand are returned unchanged
//   - bare Cherry color tokens become "Cherry MX <Color>"
//   - anything else gets a plain "<brand> <fragment>" prefix
func CompleteBrand(fragment, implicitBrand string) string {
	fragment = strings.TrimSpace(fragment)
	implicitBrand = strings.TrimSpace(implicitBrand)

	if implicitBrand == "" || fragment == "" {
		return fragment
	}

	if strings.Contains(strings.ToLower(fragment), strings.ToLower(implicitBrand)) {
		return fragment
	}

	if isCherryFamily(implicitBrand) {
		if _, ok := cherryColorVocabulary[strings.ToLower(fragment)]; ok {
			return "Cherry MX " + capitalize(fragment)
		}
	}

	return implicitBrand + " " + fragment
}

func isCherryFamily(brand string) bool {
	lower := strings.ToLower(brand)
	return lower == "cherry" || lower == "cherry mx" || lower == "mx"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
