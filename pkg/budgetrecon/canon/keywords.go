package canon

import (
	"sort"
	"strings"
)

type keyword struct {
	name   string
	tokens []string
}

// KeywordSet is the list of known client names (clientes.txt), normalized.
type KeywordSet struct {
	keywords []keyword
	names    map[string]struct{}
}

// NewKeywordSet normalizes names and drops blanks and duplicates.
func NewKeywordSet(names []string) *KeywordSet {
	ks := &KeywordSet{names: make(map[string]struct{}, len(names))}
	for _, raw := range names {
		n := Normalize(raw)
		if n == "" {
			continue
		}
		if _, dup := ks.names[n]; dup {
			continue
		}
		ks.names[n] = struct{}{}
		ks.keywords = append(ks.keywords, keyword{name: n, tokens: strings.Fields(n)})
	}
	// Longest first, so the first hit in Match is the most complete keyword.
	sort.Slice(ks.keywords, func(i, j int) bool {
		a, b := ks.keywords[i].name, ks.keywords[j].name
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return ks
}

// Match returns the longest keyword whose tokens all appear among the tokens
// of the normalized name.
func (ks *KeywordSet) Match(name string) (string, bool) {
	if ks == nil || len(ks.keywords) == 0 {
		return "", false
	}
	fields := strings.Fields(Normalize(name))
	if len(fields) == 0 {
		return "", false
	}
	have := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		have[f] = struct{}{}
	}
	for _, kw := range ks.keywords {
		if containsAll(have, kw.tokens) {
			return kw.name, true
		}
	}
	return "", false
}

func containsAll(have map[string]struct{}, tokens []string) bool {
	for _, t := range tokens {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}

// Contains reports whether the normalized name is itself a keyword.
func (ks *KeywordSet) Contains(name string) bool {
	if ks == nil {
		return false
	}
	_, ok := ks.names[Normalize(name)]
	return ok
}

// Names returns the keywords sorted alphabetically.
func (ks *KeywordSet) Names() []string {
	if ks == nil {
		return nil
	}
	out := make([]string, 0, len(ks.keywords))
	for _, kw := range ks.keywords {
		out = append(out, kw.name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of distinct keywords.
func (ks *KeywordSet) Len() int {
	if ks == nil {
		return 0
	}
	return len(ks.keywords)
}
