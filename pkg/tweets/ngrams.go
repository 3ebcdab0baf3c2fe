package tweets

import "strings"

// MaxNGram is the longest word sequence tried against restaurant names.
const MaxNGram = 4

// asciiPunctuation is removed from tweet text before tokenizing.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func words(text string) []string {
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, text)
	return strings.Fields(stripped)
}

// NGrams returns every run of n consecutive words in text, in order.
func NGrams(text string, n int) []string {
	return ngrams(words(text), n)
}

func ngrams(tokens []string, n int) []string {
	if n <= 0 || len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}

// Candidates returns the distinct n-grams of text for n = 1..MaxNGram.
func Candidates(text string) []string {
	tokens := words(text)
	seen := make(map[string]struct{})
	var out []string
	for n := 1; n <= MaxNGram; n++ {
		for _, gram := range ngrams(tokens, n) {
			if _, ok := seen[gram]; ok {
				continue
			}
			seen[gram] = struct{}{}
			out = append(out, gram)
		}
	}
	return out
}
