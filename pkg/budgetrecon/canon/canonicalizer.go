package canon

// Method tells how a name was resolved.
type Method string

const (
	// MethodAlias means an alias table entry decided the canonical name.
	MethodAlias Method = "alias"
	// MethodKeyword means a client keyword matched.
	MethodKeyword Method = "keyword"
	// MethodFallback means nothing matched and the normalized name is used.
	MethodFallback Method = "fallback"
	// MethodEmpty means the input had no usable characters.
	MethodEmpty Method = "empty"
)

// Resolution is the outcome of resolving one raw name.
type Resolution struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
	Canonical  string `json:"canonical"`
	Method     Method `json:"method"`
}

// Canonicalizer resolves raw client names against keywords and aliases.
type Canonicalizer struct {
	keywords *KeywordSet
	aliases  *AliasTable
}

// New creates a Canonicalizer. Either argument may be nil.
func New(keywords *KeywordSet, aliases *AliasTable) *Canonicalizer {
	return &Canonicalizer{keywords: keywords, aliases: aliases}
}

// Keywords returns the keyword set used by c.
func (c *Canonicalizer) Keywords() *KeywordSet {
	return c.keywords
}

// Resolve maps raw to exactly one canonical name. Order:
//  1. exact alias of the normalized name
//  2. longest keyword contained in the name (then its exact alias, if any)
//  3. alias key contained in the name
//  4. the normalized name itself
func (c *Canonicalizer) Resolve(raw string) Resolution {
	n := Normalize(raw)
	res := Resolution{Raw: raw, Normalized: n}
	if n == "" {
		res.Method = MethodEmpty
		return res
	}
	if v, ok := c.aliases.Lookup(n); ok {
		res.Canonical, res.Method = v, MethodAlias
		return res
	}
	if kw, ok := c.keywords.Match(n); ok {
		if v, ok := c.aliases.Lookup(kw); ok {
			res.Canonical, res.Method = v, MethodAlias
			return res
		}
		res.Canonical, res.Method = kw, MethodKeyword
		return res
	}
	if v, ok := c.aliases.Match(n); ok {
		res.Canonical, res.Method = v, MethodAlias
		return res
	}
	res.Canonical, res.Method = n, MethodFallback
	return res
}

// Canonical returns Resolve(raw).Canonical.
func (c *Canonicalizer) Canonical(raw string) string {
	return c.Resolve(raw).Canonical
}
