package canon

import (
	"sort"
	"strings"
)

// Alias is one raw → canonical pair as written in an alias list.
type Alias struct {
	Raw    string
	Target string
}

// Conflict records two raw spellings that normalize to the same key but
// point to different canonical names. Kept is the target that won.
type Conflict struct {
	Key     string
	Kept    string
	Dropped string
}

// AliasTable maps normalized raw names to a canonical name. Both sides are
// normalized on construction.
type AliasTable struct {
	entries   map[string]string
	keys      []keyword
	conflicts []Conflict
}

// NewAliasTable builds an AliasTable from raw → canonical pairs. The pairs
// are applied in sorted raw order, so when two spellings share a normalized
// key the result does not depend on map iteration.
func NewAliasTable(aliases map[string]string) *AliasTable {
	return NewAliasList(SortedAliases(aliases))
}

// SortedAliases returns the pairs of aliases ordered by raw name.
func SortedAliases(aliases map[string]string) []Alias {
	out := make([]Alias, 0, len(aliases))
	for raw, target := range aliases {
		out = append(out, Alias{Raw: raw, Target: target})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Raw < out[j].Raw })
	return out
}

// NewAliasList builds an AliasTable from ordered pairs. A later pair
// overrides an earlier one with the same normalized key, and the override
// is recorded as a Conflict when the targets differ. Entries whose key
// normalizes to an empty string are ignored.
func NewAliasList(aliases []Alias) *AliasTable {
	t := &AliasTable{entries: make(map[string]string, len(aliases))}
	for _, a := range aliases {
		k := Normalize(a.Raw)
		v := Normalize(a.Target)
		if k == "" || v == "" {
			continue
		}
		if prev, ok := t.entries[k]; ok && prev != v {
			t.conflicts = append(t.conflicts, Conflict{Key: k, Kept: v, Dropped: prev})
		}
		t.entries[k] = v
	}
	for k := range t.entries {
		t.keys = append(t.keys, keyword{name: k, tokens: strings.Fields(k)})
	}
	sort.Slice(t.keys, func(i, j int) bool {
		a, b := t.keys[i].name, t.keys[j].name
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return t
}

// Conflicts returns the overridden aliases in the order they were met.
func (t *AliasTable) Conflicts() []Conflict {
	if t == nil {
		return nil
	}
	return t.conflicts
}

// Lookup returns the canonical name registered for the normalized name.
func (t *AliasTable) Lookup(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t.entries[Normalize(name)]
	return v, ok
}

// Match tries Lookup first, then the longest key whose tokens appear
// contiguously inside the name. Matching works on token boundaries, so the
// key "iff" does not match "tariff".
func (t *AliasTable) Match(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	n := Normalize(name)
	if v, ok := t.entries[n]; ok {
		return v, true
	}
	fields := strings.Fields(n)
	for _, k := range t.keys {
		if containsRun(fields, k.tokens) {
			return t.entries[k.name], true
		}
	}
	return "", false
}

// Apply returns the canonical name for an exact alias, or the normalized
// name unchanged.
func (t *AliasTable) Apply(name string) string {
	if v, ok := t.Lookup(name); ok {
		return v
	}
	return Normalize(name)
}

// Len returns the number of aliases.
func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func containsRun(fields, run []string) bool {
	if len(run) == 0 || len(run) > len(fields) {
		return false
	}
	for i := 0; i+len(run) <= len(fields); i++ {
		if hasPrefixTokens(fields[i:], run) {
			return true
		}
	}
	return false
}
