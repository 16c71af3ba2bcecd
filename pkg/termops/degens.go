package termops

import "strings"

// GetPhraseDegens returns every prefix of the joined phrase that ends inside a word.
// Prefix tidak boleh berakhir di tengah leading numeric placeholder ("### m", bukan "#").
func GetPhraseDegens(tokens []string) []string {
	lead := 0
	for lead < len(tokens) && strings.Contains(tokens[lead], "#") {
		lead++
	}
	if lead == len(tokens) {
		return nil
	}

	phrase := []rune(strings.Join(tokens, " "))
	start := 1
	if lead > 0 {
		start = len([]rune(strings.Join(tokens[:lead], " "))) + 2
	}

	degens := make([]string, 0, len(phrase)-start+1)
	for i := start; i <= len(phrase); i++ {
		if phrase[i-1] == ' ' {
			continue
		}
		degens = append(degens, string(phrase[:i]))
	}
	return degens
}
