package termops

import (
	"strings"

	"github.com/RadhiFadlillah/go-sastrawi"
)

// Replacer token substitution per layer ("street" -> "st"). replacement boleh multi-word atau kosong.
type Replacer struct {
	table map[string][]string
	stem  func(string) string
}

// NewReplacer builds a replacer from a substitution table. Keys and values go through Tokenize so they
// match query tokens.
func NewReplacer(table map[string]string, stemming bool) *Replacer {
	r := &Replacer{table: make(map[string][]string, len(table))}
	for from, to := range table {
		src := Tokenize(from)
		if len(src) != 1 {
			continue
		}
		r.table[src[0]] = Tokenize(to)
	}
	if stemming {
		stemmer := sastrawi.NewStemmer(sastrawi.DefaultDictionary())
		r.stem = stemmer.Stem
	}
	return r
}

// Replace returns replaced tokens plus owner index (posisi token asal di query) untuk setiap output token.
func (r *Replacer) Replace(tokens []string) ([]string, []int) {
	out := make([]string, 0, len(tokens))
	owner := make([]int, 0, len(tokens))
	for i, token := range tokens {
		if r == nil {
			out = append(out, token)
			owner = append(owner, i)
			continue
		}
		replaced, ok := r.table[token]
		if !ok {
			replaced = []string{token}
		}
		for _, t := range replaced {
			if r.stem != nil && isStemmable(t) {
				t = r.stem(t)
			}
			if t == "" {
				continue
			}
			out = append(out, t)
			owner = append(owner, i)
		}
	}
	return out, owner
}

// ReplaceText tokenize text lalu replace, dipakai saat indexing.
func (r *Replacer) ReplaceText(text string) []string {
	out, _ := r.Replace(Tokenize(text))
	return out
}

func isStemmable(t string) bool {
	return !strings.ContainsAny(t, "#0123456789")
}
