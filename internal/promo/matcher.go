package promo

import "strings"

// Matches reports whether the item's name contains any of the keywords,
// ignoring case. An empty keyword list never matches.
func Matches(item CartLineItem, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	name := strings.ToLower(item.Nombre)
	for _, kw := range keywords {
		if strings.Contains(name, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func quantityMatching(items []CartLineItem, keywords []string) int {
	var qty int
	for _, it := range items {
		if it.Cantidad > 0 && Matches(it, keywords) {
			qty += it.Cantidad
		}
	}
	return qty
}
