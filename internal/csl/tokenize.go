package csl

import "strings"

// Separators used to split declaration-file lines into tokens.
const lineSeparators = " \t\r\n"

// Tokenize splits line on any character in separators, dropping empty runs.
// When maxTokens is non-zero and maxTokens-1 tokens have been produced, the
// rest of the line (from the next non-separator character) becomes the last
// token verbatim, embedded separators included.
func Tokenize(line, separators string, maxTokens int) []string {
	var tokens []string
	isSep := func(b byte) bool { return strings.IndexByte(separators, b) >= 0 }

	i := 0
	for i < len(line) {
		for i < len(line) && isSep(line[i]) {
			i++
		}
		if i >= len(line) {
			break
		}
		if maxTokens > 0 && len(tokens)+1 == maxTokens {
			tokens = append(tokens, line[i:])
			return tokens
		}
		end := i
		for end < len(line) && !isSep(line[end]) {
			end++
		}
		tokens = append(tokens, line[i:end])
		i = end
	}
	return tokens
}
