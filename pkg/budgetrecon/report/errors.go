// Package report joins the budget, LogComex and iTRACKER sheets and computes
// the KPIs of the commercial dashboard. It works on sheet.Table values and
// never touches the network.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing column")

// requireColumn returns the header of the first of names present in t.
func requireColumn(t *sheet.Table, names ...string) (string, error) {
	if h, ok := t.FirstColumn(names...); ok {
		return h, nil
	}
	return "", fmt.Errorf("%w: %s in %s", ErrMissingColumn, strings.Join(names, " or "), t.Name)
}
