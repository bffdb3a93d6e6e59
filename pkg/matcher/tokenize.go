package matcher

import (
	"regexp"
	"strings"
)

// words plus contractions: "John's" stays one token
var tokenRe = regexp.MustCompile(`\w+(?:'\w+)?`)

var templateSplitRe = regexp.MustCompile(`\{[^}]+\}`)

// tokenize lowers the text and splits it into word tokens.
func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

type templateTokenKind int

const (
	tokenWord templateTokenKind = iota
	tokenPlaceholder
)

// templateToken is one element of a tokenized template: a literal word or a
// placeholder slot.
type templateToken struct {
	kind templateTokenKind
	text string // lowercased word, or placeholder name
}

// tokenizeTemplate splits a pattern template into word and placeholder tokens
// in order of appearance.
func tokenizeTemplate(template string) []templateToken {
	var tokens []templateToken
	rest := template
	for {
		loc := templateSplitRe.FindStringIndex(rest)
		if loc == nil {
			break
		}
		for _, word := range tokenize(rest[:loc[0]]) {
			tokens = append(tokens, templateToken{kind: tokenWord, text: word})
		}
		name := rest[loc[0]+1 : loc[1]-1]
		tokens = append(tokens, templateToken{kind: tokenPlaceholder, text: name})
		rest = rest[loc[1]:]
	}
	for _, word := range tokenize(rest) {
		tokens = append(tokens, templateToken{kind: tokenWord, text: word})
	}
	return tokens
}

// literalWords returns only the word tokens of a tokenized template.
func literalWords(tokens []templateToken) []string {
	var words []string
	for _, t := range tokens {
		if t.kind == tokenWord {
			words = append(words, t.text)
		}
	}
	return words
}
