// Package matcher scores natural-language input against the patterns of a
// grammar: exact regex matching first, token-similarity fuzzy matching as the
// fallback, plus suggestion generation for unmatched input.
package matcher

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kb-query/kb-query-go/pkg/models"
	"github.com/kb-query/kb-query-go/utils"
)

// DefaultSimilarityThreshold is the minimum blended similarity for a fuzzy
// match to count.
const DefaultSimilarityThreshold = 0.7

// flexibleWordThreshold gates the flexible extraction fallback: a template
// word must resemble some input token at least this much to anchor the slice.
const flexibleWordThreshold = 0.6

var escapedPlaceholderRe = regexp.MustCompile(`\\\{[^}]+\\\}`)
var placeholderPartRe = regexp.MustCompile(`\{[^}]+\}`)

// Matcher matches input text to grammar patterns. Safe for concurrent use:
// it holds no per-query state.
type Matcher struct {
	threshold float64
	logger    *utils.Logger
}

// NewMatcher creates a matcher with the given similarity threshold. A zero
// threshold selects the default.
func NewMatcher(threshold float64, logger *utils.Logger) *Matcher {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Matcher{threshold: threshold, logger: logger.WithComponent("matcher")}
}

// FindMatches scores every pattern in the grammar against the input and
// returns those above the similarity threshold, highest confidence first.
// The sort is stable, so ties keep grammar order.
func (m *Matcher) FindMatches(inputText string, grammar *models.Grammar) []*models.MatchResult {
	var matches []*models.MatchResult
	for _, pattern := range grammar.Patterns {
		result := m.matchPattern(inputText, pattern)
		if result != nil && result.Confidence >= m.threshold {
			matches = append(matches, result)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// ExtractEntities extracts placeholder values from input for a pattern:
// anchored regex extraction first, positional extraction as fallback.
func (m *Matcher) ExtractEntities(inputText string, pattern *models.Pattern) map[string]string {
	re, err := templateToRegex(pattern.Template)
	if err == nil {
		if groups := re.FindStringSubmatch(inputText); groups != nil {
			return entitiesFromGroups(groups, pattern)
		}
	}
	return extractPositional(inputText, pattern)
}

// SuggestCorrections ranks pattern examples for unmatched input: patterns
// whose keywords substantially overlap the input contribute two examples,
// patterns sharing any literal word contribute one. Deduplicated, capped
// at five, first-seen order preserved.
func (m *Matcher) SuggestCorrections(inputText string, grammar *models.Grammar) []string {
	inputTokens := tokenize(inputText)
	tokenSet := make(map[string]struct{}, len(inputTokens))
	for _, t := range inputTokens {
		tokenSet[t] = struct{}{}
	}

	var suggestions []string
	for _, pattern := range grammar.Patterns {
		if len(pattern.Keywords) > 0 {
			if keywordOverlap(tokenSet, pattern.Keywords) > 0.3 {
				suggestions = append(suggestions, firstN(pattern.Examples, 2)...)
			}
		}
		for _, word := range literalWords(tokenizeTemplate(pattern.Template)) {
			if _, ok := tokenSet[word]; ok {
				suggestions = append(suggestions, firstN(pattern.Examples, 1)...)
				break
			}
		}
	}

	seen := make(map[string]struct{}, len(suggestions))
	unique := suggestions[:0]
	for _, s := range suggestions {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
		if len(unique) == 5 {
			break
		}
	}
	return unique
}

func (m *Matcher) matchPattern(inputText string, pattern *models.Pattern) *models.MatchResult {
	if result := m.tryExactMatch(inputText, pattern); result != nil {
		return result
	}
	return m.tryFuzzyMatch(inputText, pattern)
}

func (m *Matcher) tryExactMatch(inputText string, pattern *models.Pattern) *models.MatchResult {
	re, err := templateToRegex(pattern.Template)
	if err != nil {
		return nil
	}
	groups := re.FindStringSubmatch(inputText)
	if groups == nil {
		return nil
	}
	return &models.MatchResult{
		Pattern:    pattern,
		Confidence: 1.0,
		Entities:   entitiesFromGroups(groups, pattern),
		MatchType:  models.MatchExact,
	}
}

func (m *Matcher) tryFuzzyMatch(inputText string, pattern *models.Pattern) *models.MatchResult {
	inputTokens := tokenize(inputText)
	templateTokens := tokenizeTemplate(pattern.Template)

	similarity := blendedSimilarity(inputTokens, templateTokens)
	if similarity < m.threshold {
		return nil
	}

	entities := extractPositional(inputText, pattern)
	if len(entities) == 0 {
		entities = extractFlexible(inputText, inputTokens, templateTokens)
	}
	return &models.MatchResult{
		Pattern:    pattern,
		Confidence: similarity,
		Entities:   entities,
		MatchType:  models.MatchFuzzy,
	}
}

// templateToRegex compiles a template into an anchored, case-insensitive
// regex: literal text escaped, each placeholder a non-greedy capture group,
// and the possessive apostrophe made optional so "Johns meetings" matches
// "{person}'s meetings" too.
func templateToRegex(template string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(template)
	pattern := escapedPlaceholderRe.ReplaceAllString(escaped, `(.+?)`)
	pattern = strings.ReplaceAll(pattern, "'s", "'?s?")
	return regexp.Compile(`(?i)^` + pattern + `$`)
}

// entitiesFromGroups maps capture groups to placeholder names in template
// order, trimming whitespace, preserving the input's casing.
func entitiesFromGroups(groups []string, pattern *models.Pattern) map[string]string {
	entities := make(map[string]string)
	for i, name := range pattern.Placeholders() {
		if i+1 < len(groups) {
			entities[name] = strings.TrimSpace(groups[i+1])
		}
	}
	return entities
}

// extractPositional rebuilds an unanchored regex from the template's
// literal/placeholder layout and extracts entities by capture position.
func extractPositional(inputText string, pattern *models.Pattern) map[string]string {
	entities := make(map[string]string)
	var sb strings.Builder
	var placeholders []string

	rest := pattern.Template
	for {
		loc := placeholderPartRe.FindStringIndex(rest)
		if loc == nil {
			sb.WriteString(regexp.QuoteMeta(rest))
			break
		}
		sb.WriteString(regexp.QuoteMeta(rest[:loc[0]]))
		placeholders = append(placeholders, rest[loc[0]+1:loc[1]-1])
		sb.WriteString(`(.+?)`)
		rest = rest[loc[1]:]
	}
	if len(placeholders) == 0 {
		return entities
	}

	re, err := regexp.Compile(`(?i)` + sb.String())
	if err != nil {
		return entities
	}
	groups := re.FindStringSubmatch(inputText)
	if groups == nil {
		return entities
	}
	for i, name := range placeholders {
		if i+1 < len(groups) {
			entities[name] = strings.TrimSpace(groups[i+1])
		}
	}
	return entities
}

// extractFlexible is the last-resort extraction for fuzzy matches with a
// single placeholder: find the template word best resembling some input
// token, then take every input token after that position as the entity,
// sliced out of the original text to keep its casing. Entities containing
// words that resemble template literals can get wrong boundaries here; that
// imprecision is accepted in exchange for typo tolerance.
func extractFlexible(inputText string, inputTokens []string, templateTokens []templateToken) map[string]string {
	entities := make(map[string]string)

	var placeholders []string
	for _, t := range templateTokens {
		if t.kind == tokenPlaceholder {
			placeholders = append(placeholders, t.text)
		}
	}
	patternWords := literalWords(templateTokens)
	if len(placeholders) != 1 || len(patternWords) == 0 {
		return entities
	}

	bestIdx := -1
	bestSimilarity := 0.0
	for _, patternWord := range patternWords {
		for j, inputToken := range inputTokens {
			similarity := wordRatio(inputToken, patternWord)
			if similarity > bestSimilarity && similarity > flexibleWordThreshold {
				bestSimilarity = similarity
				bestIdx = j
			}
		}
	}
	if bestIdx == -1 || bestIdx >= len(inputTokens)-1 {
		return entities
	}

	entityTokens := inputTokens[bestIdx+1:]
	entities[placeholders[0]] = reconstructEntity(inputText, entityTokens)
	return entities
}

// reconstructEntity recovers the original casing of extracted tokens by
// locating the first token in the lowercased input and slicing from there.
func reconstructEntity(originalText string, tokens []string) string {
	pos := strings.Index(strings.ToLower(originalText), tokens[0])
	if pos != -1 {
		words := strings.Fields(originalText[pos:])
		if len(words) >= len(tokens) {
			return strings.Join(words[:len(tokens)], " ")
		}
	}
	return strings.Join(tokens, " ")
}

func keywordOverlap(tokenSet map[string]struct{}, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0.0
	}
	matches := 0
	for _, keyword := range keywords {
		if _, ok := tokenSet[keyword]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(keywords))
}

func firstN(items []string, n int) []string {
	if len(items) < n {
		n = len(items)
	}
	return items[:n]
}
