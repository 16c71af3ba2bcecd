package termops

import (
	"regexp"
	"strconv"
	"strings"
)

var addressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+[a-z]?$`),                 // 10, 10a
	regexp.MustCompile(`^(\d+)-(\d+)[a-z]?$`),         // 10-19, 10-19a
	regexp.MustCompile(`^(\d+)([nsew])(\d+)[a-z]?$`),  // 6n23
	regexp.MustCompile(`^([nesw])(\d+)([nesw]\d+)?$`), // w350n5337, n453
}

var nonDigitRe = regexp.MustCompile(`[^\d]`)

// IsAddressToken reports whether token looks like a house number.
func IsAddressToken(token string) bool {
	for _, re := range addressPatterns {
		if re.MatchString(token) {
			return true
		}
	}
	return false
}

// ParseSemiNumber extracts the digits of a mixed string, "12a" -> 12.
func ParseSemiNumber(s string) (int, bool) {
	digits := nonDigitRe.ReplaceAllString(s, "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NumToken length-coded placeholder. "1" -> "#", "12" -> "##", "123" -> "1##", "1234" -> "12##".
func NumToken(num string) string {
	switch len(num) {
	case 0:
		return ""
	case 1:
		return "#"
	case 2:
		return "##"
	}
	lead := 2
	if len(num) == 3 {
		lead = 1
	}
	return num[:lead] + strings.Repeat("#", len(num)-lead)
}

// NumTokenize returns one variant per address-like token with that token replaced by its placeholder.
func NumTokenize(tokens []string) [][]string {
	var variants [][]string
	for i, token := range tokens {
		if !IsAddressToken(token) {
			continue
		}
		num, ok := ParseSemiNumber(token)
		if !ok {
			continue
		}
		replaced := make([]string, len(tokens))
		copy(replaced, tokens)
		replaced[i] = NumToken(strconv.Itoa(num))
		variants = append(variants, replaced)
	}
	return variants
}

// IsAddressNumber reports whether tokens consist of a single placeholder.
func IsAddressNumber(tokens []string) bool {
	return len(tokens) == 1 && strings.Contains(tokens[0], "#")
}

// Address returns the first address-like token and its position.
func Address(tokens []string) (string, int, bool) {
	for i, t := range tokens {
		if IsAddressToken(t) {
			return t, i, true
		}
	}
	return "", -1, false
}

// MaskAddress cari house number di posisi mask yang tidak dipakai oleh text feature.
func MaskAddress(query []string, coverText string, mask uint32) (string, int, bool) {
	coverTokens := make(map[string]struct{})
	for _, t := range Tokenize(coverText) {
		coverTokens[t] = struct{}{}
	}
	for i, token := range query {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		if _, ok := coverTokens[token]; ok {
			delete(coverTokens, token)
			continue
		}
		if IsAddressToken(token) {
			return token, i, true
		}
	}
	return "", -1, false
}
