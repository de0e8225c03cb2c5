// Package canon resolves free-text company names coming from different
// spreadsheets (budget, LogComex, iTRACKER) to one canonical client name.
package canon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DocumentNumberMinDigits is the length from which a purely numeric token is
// treated as a document number (CNPJ fragment, order id) and dropped.
const DocumentNumberMinDigits = 6

// DefaultStopwords lists the tokens removed from company names: legal forms,
// Portuguese connectives and trade words that vary between sources.
var DefaultStopwords = []string{
	"ltda", "sa", "me", "eireli", "industria", "comercio", "x",
	"de", "do", "da", "dos", "das", "e",
	"importacao", "exportacao", "importadora", "distribuidora", "abr",
}

// DefaultPhrases lists multi-word expressions removed as a whole.
var DefaultPhrases = []string{
	"em recuperacao judicial",
}

// Normalizer turns a raw company name into its normalized form.
type Normalizer struct {
	stopwords    map[string]struct{}
	phrases      [][]string
	minDocDigits int
}

// NewNormalizer creates a Normalizer. Stopwords and phrases are folded the
// same way names are, so callers may pass them with accents or upper case.
func NewNormalizer(stopwords, phrases []string) *Normalizer {
	n := &Normalizer{
		stopwords:    make(map[string]struct{}, len(stopwords)),
		minDocDigits: DocumentNumberMinDigits,
	}
	for _, w := range stopwords {
		for _, tok := range Tokens(w) {
			n.stopwords[tok] = struct{}{}
		}
	}
	for _, p := range phrases {
		if toks := Tokens(p); len(toks) > 0 {
			n.phrases = append(n.phrases, toks)
		}
	}
	return n
}

// DefaultNormalizer returns a Normalizer configured with DefaultStopwords and
// DefaultPhrases.
func DefaultNormalizer() *Normalizer {
	return NewNormalizer(DefaultStopwords, DefaultPhrases)
}

var std = DefaultNormalizer()

// Normalize normalizes name with the default stopwords.
func Normalize(name string) string {
	return std.Normalize(name)
}

// Normalize lowercases name, strips accents and punctuation, and removes
// document numbers, phrases and stopwords. When those removals would leave
// nothing (a client literally named "DO"), the cleaned tokens are kept.
// Normalize is idempotent.
func (n *Normalizer) Normalize(name string) string {
	tokens := Tokens(name)
	if len(tokens) == 0 {
		return ""
	}
	kept := n.strip(tokens)
	if len(kept) == 0 {
		return strings.Join(tokens, " ")
	}
	return strings.Join(kept, " ")
}

// strip removes droppable tokens until nothing else can be removed. Dropping
// a stopword can make a phrase contiguous, hence the loop.
func (n *Normalizer) strip(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if n.isDocumentNumber(tok) {
			continue
		}
		if _, ok := n.stopwords[tok]; ok {
			continue
		}
		out = append(out, tok)
	}
	for {
		next := removePhrases(out, n.phrases)
		if len(next) == len(out) {
			return out
		}
		out = next
	}
}

func (n *Normalizer) isDocumentNumber(tok string) bool {
	if len(tok) < n.minDocDigits {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func removePhrases(tokens []string, phrases [][]string) []string {
	if len(phrases) == 0 {
		return tokens
	}
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		matched := 0
		for _, p := range phrases {
			if hasPrefixTokens(tokens[i:], p) {
				matched = len(p)
				break
			}
		}
		if matched > 0 {
			i += matched
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	return out
}

func hasPrefixTokens(tokens, prefix []string) bool {
	if len(prefix) > len(tokens) {
		return false
	}
	for i := range prefix {
		if tokens[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Tokens splits name into lowercase, accent-free alphanumeric tokens.
// Single letters joined by '.' or '/' are read as one abbreviation, so
// "S.A." and "S/A" both become "sa". Apostrophes are dropped; any other
// punctuation separates tokens.
func Tokens(name string) []string {
	s := stripAccents(strings.ToLower(name))

	type piece struct {
		text   string
		single bool
		sep    rune
	}
	var pieces []piece
	var cur strings.Builder
	letters := 0
	flush := func(sep rune) {
		if cur.Len() == 0 {
			return
		}
		pieces = append(pieces, piece{text: cur.String(), single: letters == 1, sep: sep})
		cur.Reset()
		letters = 0
	}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
			letters++
		case r == '\'' || r == '’' || r == '`':
		default:
			flush(r)
		}
	}
	flush(' ')

	var tokens []string
	for i := 0; i < len(pieces); i++ {
		p := pieces[i]
		if !p.single || !isAbbrevSep(p.sep) || i+1 >= len(pieces) || !pieces[i+1].single {
			tokens = append(tokens, p.text)
			continue
		}
		var b strings.Builder
		b.WriteString(p.text)
		for i+1 < len(pieces) && pieces[i+1].single && isAbbrevSep(pieces[i].sep) {
			i++
			b.WriteString(pieces[i].text)
		}
		tokens = append(tokens, b.String())
	}
	return tokens
}

func isAbbrevSep(r rune) bool {
	return r == '.' || r == '/'
}

// Fold lowercases text, strips accents and collapses whitespace. Unlike
// Normalize it keeps punctuation and stopwords; it is meant for searching
// names inside longer free text.
func Fold(text string) string {
	return strings.Join(strings.Fields(stripAccents(strings.ToLower(text))), " ")
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
