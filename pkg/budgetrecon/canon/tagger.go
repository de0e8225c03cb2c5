package canon

import (
	"regexp"
	"sort"
)

type taggedClient struct {
	name string
	re   *regexp.Regexp
}

// Tagger finds known client names inside free-text cells, on word
// boundaries and ignoring case and accents.
type Tagger struct {
	clients []taggedClient
}

// NewTagger builds a Tagger for the given client names. The original
// spelling is what Find reports back.
func NewTagger(names []string) *Tagger {
	t := &Tagger{}
	seen := make(map[string]bool)
	for _, name := range names {
		folded := Fold(name)
		if folded == "" || seen[name] {
			continue
		}
		seen[name] = true
		t.clients = append(t.clients, taggedClient{
			name: name,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(folded) + `\b`),
		})
	}
	return t
}

// Find returns the sorted client names found in any of the cells and the
// sorted column names where at least one was found.
func (t *Tagger) Find(cells map[string]string) (clients, columns []string) {
	foundClients := make(map[string]bool)
	foundColumns := make(map[string]bool)
	for col, text := range cells {
		folded := Fold(text)
		if folded == "" {
			continue
		}
		for _, c := range t.clients {
			if c.re.MatchString(folded) {
				foundClients[c.name] = true
				foundColumns[col] = true
			}
		}
	}
	return sortedKeys(foundClients), sortedKeys(foundColumns)
}

// Len returns the number of clients the Tagger searches for.
func (t *Tagger) Len() int {
	return len(t.clients)
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
