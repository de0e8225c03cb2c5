// Package models defines the rows exchanged between the report steps.
package models

import "strings"

// Category is the trade lane of a LogComex shipment.
type Category string

const (
	Importacao Category = "Importação"
	Exportacao Category = "Exportação"
	Cabotagem  Category = "Cabotagem"
)

// Categories lists the categories in output column order.
var Categories = []Category{Importacao, Exportacao, Cabotagem}

// ParseCategory reads a Categoria cell. Accents and case are ignored and the
// short forms used in file names ("imp", "exp", "cab") are accepted.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("ç", "c", "ã", "a", "á", "a").Replace(s)
	switch {
	case strings.HasPrefix(s, "imp"):
		return Importacao, true
	case strings.HasPrefix(s, "exp"):
		return Exportacao, true
	case strings.HasPrefix(s, "cab"):
		return Cabotagem, true
	}
	return "", false
}
