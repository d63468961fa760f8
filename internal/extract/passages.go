package extract

import (
	"regexp"
	"sort"
	"strings"
)

// indicatorWords mark sentences that state findings or conclusions; each
// occurrence is worth two points.
var indicatorWords = []string{
	"important", "key", "main", "conclusion", "summary", "result",
	"finding", "therefore", "thus", "shows", "demonstrates",
	"reveals", "significant", "notably",
}

var (
	passageCamelRe = regexp.MustCompile(`\b[a-z]+[A-Z][a-zA-Z]*\b`)
	passageSnakeRe = regexp.MustCompile(`\b[a-z]+_[a-z]+\b`)
)

type scoredSentence struct {
	score    int
	position int
	text     string
}

// ExtractKeySentences scores every sentence longer than 20 characters by
// position (the first three and last two get bonuses), length (medium-length
// preferred), indicator words, density of non-initial capitalized tokens,
// and technical identifier patterns. Documents with more than 10 sentences
// and maxSentences >= 3 first take the best sentence from each third of the
// document, then fill the remaining slots by global score; everything else
// just takes the top scorers. A text with no qualifying sentences yields its
// own first 500 characters so short notes still get a passage.
func ExtractKeySentences(text string, maxSentences int) []string {
	var sentences []string
	for _, s := range splitSentences(text) {
		if len(s) > 20 {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 {
		truncated := text
		if len(truncated) > 500 {
			truncated = truncated[:500]
		}
		return []string{truncated}
	}

	total := len(sentences)
	scored := make([]scoredSentence, total)
	for i, sent := range sentences {
		scored[i] = scoredSentence{score: scoreSentence(sent, i, total), position: i, text: sent}
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].score > scored[b].score })

	if total > 10 && maxSentences >= 3 {
		return selectWithDiversity(scored, maxSentences, total)
	}

	out := make([]string, 0, maxSentences)
	for _, s := range scored {
		if len(out) >= maxSentences {
			break
		}
		out = append(out, s.text)
	}
	return out
}

func scoreSentence(sent string, i, total int) int {
	score := 0

	if i < 3 {
		score += 3 - i
	}
	if total > 5 && i >= total-2 {
		score += 2
	}

	switch l := len(sent); {
	case l > 50 && l < 200:
		score += 2
	case l >= 200:
		score++
	}

	lower := strings.ToLower(sent)
	for _, kw := range indicatorWords {
		if strings.Contains(lower, kw) {
			score += 2
		}
	}

	capitalized := 0
	words := strings.Fields(sent)
	for j, w := range words {
		if j == 0 {
			continue
		}
		r := []rune(w)
		if len(r) > 0 && isUpper(r[0]) && !isAllUpper(w) {
			capitalized++
		}
	}
	if capitalized > 3 {
		capitalized = 3
	}
	score += capitalized

	if passageCamelRe.MatchString(sent) {
		score++
	}
	if passageSnakeRe.MatchString(sent) {
		score++
	}

	return score
}

// selectWithDiversity takes the best unselected sentence from each third of
// the document, then fills the remaining slots by global score.
func selectWithDiversity(scored []scoredSentence, maxSentences, total int) []string {
	third := total / 3
	ranges := [3][2]int{{0, third}, {third, 2 * third}, {2 * third, total}}

	selected := make([]string, 0, maxSentences)
	has := func(s string) bool {
		for _, sel := range selected {
			if sel == s {
				return true
			}
		}
		return false
	}

	for _, r := range ranges {
		for _, s := range scored {
			if s.position >= r[0] && s.position < r[1] && !has(s.text) {
				selected = append(selected, s.text)
				break
			}
		}
	}

	for _, s := range scored {
		if len(selected) >= maxSentences {
			break
		}
		if !has(s.text) {
			selected = append(selected, s.text)
		}
	}

	if len(selected) > maxSentences {
		selected = selected[:maxSentences]
	}
	return selected
}
