package ontology

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokIRI tokenKind = iota
	tokLiteral
	tokKeyword // prefixed names, "a", directives
	tokPunct   // . ; , [ ] ( )
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits Turtle content into tokens, dropping comments and literal
// datatype/language annotations.
func tokenize(content string) ([]token, error) {
	var tokens []token
	runes := []rune(content)
	i := 0
	n := len(runes)

	for i < n {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++

		case r == '#':
			for i < n && runes[i] != '\n' {
				i++
			}

		case r == '<':
			j := i + 1
			for j < n && runes[j] != '>' {
				j++
			}
			if j >= n {
				return nil, &ParseError{Message: "unterminated IRI"}
			}
			tokens = append(tokens, token{kind: tokIRI, text: string(runes[i+1 : j])})
			i = j + 1

		case r == '"':
			// Triple-quoted long literal
			if i+2 < n && runes[i+1] == '"' && runes[i+2] == '"' {
				j := i + 3
				for j+2 < n && !(runes[j] == '"' && runes[j+1] == '"' && runes[j+2] == '"') {
					j++
				}
				if j+2 >= n {
					return nil, &ParseError{Message: "unterminated long literal"}
				}
				tokens = append(tokens, token{kind: tokLiteral, text: string(runes[i+3 : j])})
				i = j + 3
			} else {
				var sb strings.Builder
				j := i + 1
				for j < n && runes[j] != '"' {
					if runes[j] == '\\' && j+1 < n {
						j++
						switch runes[j] {
						case 'n':
							sb.WriteRune('\n')
						case 't':
							sb.WriteRune('\t')
						case 'r':
							sb.WriteRune('\r')
						default:
							sb.WriteRune(runes[j])
						}
					} else {
						sb.WriteRune(runes[j])
					}
					j++
				}
				if j >= n {
					return nil, &ParseError{Message: "unterminated literal"}
				}
				tokens = append(tokens, token{kind: tokLiteral, text: sb.String()})
				i = j + 1
			}
			// Skip datatype (^^xsd:date) or language (@en) annotations.
			if i+1 < n && runes[i] == '^' && runes[i+1] == '^' {
				i += 2
				i = skipTerm(runes, i)
			} else if i < n && runes[i] == '@' {
				i++
				for i < n && (unicode.IsLetter(runes[i]) || runes[i] == '-') {
					i++
				}
			}

		case r == '.' || r == ';' || r == ',' || r == '[' || r == ']' || r == '(' || r == ')':
			tokens = append(tokens, token{kind: tokPunct, text: string(r)})
			i++

		default:
			j := i
			for j < n && !unicode.IsSpace(runes[j]) && !strings.ContainsRune(";,[]()<>\"", runes[j]) {
				// A "." ends a term only when followed by whitespace or EOF,
				// so decimal numbers and dotted local names survive.
				if runes[j] == '.' && (j+1 >= n || unicode.IsSpace(runes[j+1])) {
					break
				}
				j++
			}
			text := string(runes[i:j])
			if text != "" {
				tokens = append(tokens, token{kind: tokKeyword, text: text})
			}
			i = j
		}
	}
	return tokens, nil
}

// skipTerm advances past one IRI or prefixed-name term.
func skipTerm(runes []rune, i int) int {
	n := len(runes)
	if i < n && runes[i] == '<' {
		for i < n && runes[i] != '>' {
			i++
		}
		if i < n {
			i++
		}
		return i
	}
	for i < n && !unicode.IsSpace(runes[i]) && !strings.ContainsRune(".;,[]()", runes[i]) {
		i++
	}
	return i
}
