package resolver

import (
	"strings"
	"unicode"

	"github.com/DevPanatec/InfoPanama-sub001/internal/normalize"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// genericSpeakers are normalized tokens that name a class of people rather
// than an identifiable actor. Mentions that reduce to one of these are
// skipped, never stored.
var genericSpeakers = map[string]struct{}{
	"anonimo":    {},
	"fuentes":    {},
	"testigos":   {},
	"vecinos":    {},
	"ciudadanos": {},
	"residentes": {},
	"expertos":   {},
	"analistas":  {},
	"usuarios":   {},
	"seguidores": {},
}

// IsGenericSpeaker reports whether the normalized name is a generic speaker
// token.
func IsGenericSpeaker(normalized string) bool {
	_, ok := genericSpeakers[normalized]
	return ok
}

// organizationKeywords mark institutional names in Panamanian news text.
var organizationKeywords = []string{
	"ministerio", "asamblea", "partido", "gobierno", "tribunal",
	"comision", "instituto", "autoridad", "corporacion", "empresa",
	"alcaldia", "municipio", "banco", "sociedad", "fundacion",
	"asociacion", "coalicion", "sistema", "caja",
}

// InferType guesses the entity type from the surface form. Used when a
// relation counterpart is auto-created and the upstream step supplied no
// type: institutional keywords win, then two or more capitalized tokens
// read as a person name.
func InferType(name string) types.EntityType {
	// Normalizing folds diacritics so "Comisión" still hits "comision".
	folded := normalize.Name(name)
	for _, kw := range organizationKeywords {
		if strings.Contains(folded, kw) {
			return types.EntityOrganization
		}
	}

	capitalized := 0
	for _, token := range strings.Fields(name) {
		for _, r := range token {
			if unicode.IsUpper(r) {
				capitalized++
			}
			break
		}
	}
	if capitalized >= 2 {
		return types.EntityPerson
	}
	return types.EntityOther
}
