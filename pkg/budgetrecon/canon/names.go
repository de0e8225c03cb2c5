package canon

import "strings"

// SplitNames splits a cell holding several names separated by commas.
func SplitNames(cell string) []string {
	var out []string
	for _, part := range strings.Split(cell, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExtractNames collects every distinct normalized name found in cells and
// maps it to its canonical name. Cells may hold comma-separated lists.
func ExtractNames(cells []string, c *Canonicalizer) map[string]string {
	out := make(map[string]string)
	for _, cell := range cells {
		for _, name := range SplitNames(cell) {
			n := Normalize(name)
			if n == "" {
				continue
			}
			if _, seen := out[n]; seen {
				continue
			}
			out[n] = c.Canonical(n)
		}
	}
	return out
}
