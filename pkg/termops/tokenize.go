package termops

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// wordSeparator. unicode spaces, general/supplemental punctuation, ascii punctuation dan fullwidth punctuation.
const wordSeparator = `\s\p{Zs}\x{000B}\x{FEFF}` +
	`\x{2000}-\x{206F}` +
	`\x{2E00}-\x{2E7F}` +
	`\x{0021}-\x{002F}` +
	`\x{003A}-\x{0040}` +
	`\x{005B}-\x{0060}` +
	`\x{007B}-\x{007E}` +
	`\x{FF01}-\x{FF0F}` +
	`\x{FF1A}-\x{FF20}` +
	`\x{FF3B}-\x{FF40}` +
	`\x{FF5B}-\x{FF65}`

var (
	collapseRe       = regexp.MustCompile(`[\x{2018}\x{2019}\x{02BC}\x{02BB}\x{FF07}'.^]`)
	leadingSepRe     = regexp.MustCompile(`^[` + wordSeparator + `]+`)
	splitRe          = regexp.MustCompile(`([^` + wordSeparator + `]+)([` + wordSeparator + `]+|$)`)
	numericRangeRe   = regexp.MustCompile(`^(\d+)(-|/)(\d+)((-|/)(\d+))?[a-z]?$`)
	diacriticsFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// FoldDiacritics removes combining marks, "Zürich" -> "Zurich".
func FoldDiacritics(s string) string {
	folded, _, err := transform.String(diacriticsFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// Tokenize normalize query menjadi lowercase token. separator '-' dan '/' di antara angka
// dipertahankan (house number range "4-10", "1/2a").
func Tokenize(query string) []string {
	normalized := strings.ToLower(FoldDiacritics(query))
	normalized = collapseRe.ReplaceAllString(normalized, "")
	normalized = leadingSepRe.ReplaceAllString(normalized, "")

	tokens := make([]string, 0, 4)

	var (
		tailTok string
		tailSep string
		hasTail bool
	)

	for _, part := range splitRe.FindAllStringSubmatch(normalized, -1) {
		t, s := part[1], part[2]

		if hasTail {
			combined := tailTok + tailSep + t
			if (tailSep == "-" || tailSep == "/") && numericRangeRe.MatchString(combined) {
				t = combined
			} else {
				tokens = append(tokens, tailTok)
			}
		}
		hasTail = false

		if len(t) == 0 || len(removeSymbols(t)) == 0 {
			continue
		}

		if sub := splitIdeographs(t); len(sub) > 1 {
			tokens = append(tokens, sub...)
			continue
		}

		if s == "-" || s == "/" {
			tailTok, tailSep, hasTail = t, s, true
		} else {
			tokens = append(tokens, t)
		}
	}
	if hasTail {
		tokens = append(tokens, tailTok)
	}

	return tokens
}

func isIdeograph(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// splitIdeographs. setiap CJK ideograph jadi token sendiri, run non-CJK tetap utuh.
func splitIdeographs(t string) []string {
	var (
		out  []string
		run  strings.Builder
		cjks int
	)
	for _, r := range t {
		if isIdeograph(r) {
			if run.Len() > 0 {
				out = append(out, run.String())
				run.Reset()
			}
			out = append(out, string(r))
			cjks++
			continue
		}
		run.WriteRune(r)
	}
	if run.Len() > 0 {
		out = append(out, run.String())
	}
	if cjks == 0 {
		return []string{t}
	}
	return out
}

// removeSymbols drops emoji and pictographic runes, plus the variation selectors that follow them.
func removeSymbols(t string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.So, r):
			return -1
		case r == 0x20E3 || (r >= 0xFE00 && r <= 0xFE0F):
			return -1
		case r >= 0x1F000 && r <= 0x1FAFF:
			return -1
		}
		return r
	}, t)
}

// ParseLonLat returns the coordinate pair of a "lon,lat" query.
func ParseLonLat(query string) ([]float64, bool) {
	parts := strings.SplitN(query, ",", 3)
	if len(parts) != 2 {
		return nil, false
	}
	coords := make([]float64, 0, 2)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, false
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		coords = append(coords, v)
	}
	return coords, true
}
