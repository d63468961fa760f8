package extract

import (
	"sort"
	"strings"
)

// TopicResult is the outcome of keyword-based topic classification.
type TopicResult struct {
	Topics       []string
	PrimaryTopic string
	Confidence   float64
}

// DefaultTopics is the closed set of topics classify_by_keywords chooses
// from; anything that matches no keyword falls back to "general".
var DefaultTopics = []string{
	"health", "finance", "work", "personal", "social", "legal", "travel",
	"education", "programming", "sports", "technology", "shopping", "family", "general",
}

var keywordMap = buildKeywordMap()
var stemmedMap = buildStemmedMap()

func buildKeywordMap() map[string]string {
	m := map[string]string{}
	add := func(topic string, words ...string) {
		for _, w := range words {
			m[w] = topic
		}
	}
	add("sports", "basketball", "football", "soccer", "baseball", "tennis", "golf", "hockey",
		"game", "team", "player", "score", "match", "championship", "athlete", "winning", "overtime")
	add("technology", "smartphone", "computer", "laptop", "software", "hardware", "app",
		"processor", "camera", "device", "digital", "internet", "wifi")
	add("shopping", "bought", "purchased", "store", "mall", "sale", "discount", "price",
		"cart", "order", "delivery", "retail", "shop", "dress", "shoes", "clothes", "purchase")
	add("health", "doctor", "medicine", "prescription", "hospital", "treatment", "diagnosis",
		"symptom", "patient", "clinic", "nurse", "surgery", "antibiotic", "antibiotics",
		"prescribed", "infection", "therapy", "medical", "dental", "dentist", "fitness",
		"exercise", "diet", "wellness", "nutrition", "workout", "gym")
	add("family", "parents", "children", "kids", "siblings", "relatives", "grandparents",
		"cousins", "reunion", "mother", "father", "brother", "sister")
	add("programming", "code", "python", "javascript", "function", "class", "api", "debug",
		"compile", "algorithm", "def", "return", "import", "variable", "loop", "array",
		"programming", "coding", "developer", "quicksort", "recursion", "recursive",
		"select", "sql", "database", "query", "table", "insert")
	add("finance", "money", "budget", "investment", "bank", "savings", "loan", "credit", "tax")
	add("education", "school", "university", "college", "learning", "student", "teacher",
		"course", "study", "exam")
	add("travel", "vacation", "trip", "flight", "hotel", "destination", "airport", "tourism")
	add("legal", "lawyer", "court", "law", "contract", "attorney", "lawsuit", "legal")
	add("work", "job", "office", "meeting", "project", "deadline", "colleague", "boss", "career")
	add("personal", "diary", "journal", "thoughts", "feelings", "myself", "private",
		"personal", "reflection", "friends")
	add("social", "party", "socializing", "hangout", "gathering", "community", "networking", "social")
	return m
}

func buildStemmedMap() map[string]string {
	m := map[string]string{}
	for keyword, topic := range keywordMap {
		stemmed := simpleStem(keyword)
		if stemmed != keyword {
			m[stemmed] = topic
		}
	}
	return m
}

const wordSeparators = " \t\n\r,.;:!?()[]{}\"'/\\"

// ClassifyByKeywords tallies keyword (and stemmed-keyword) hits per topic
// and returns the top 3 (topics with equal counts in name order), or
// "general" with low confidence if nothing matched.
func ClassifyByKeywords(text string) TopicResult {
	textLower := strings.ToLower(text)
	predefined := make(map[string]bool, len(DefaultTopics))
	for _, t := range DefaultTopics {
		predefined[t] = true
	}

	counts := map[string]int{}
	for _, word := range strings.FieldsFunc(textLower, func(r rune) bool {
		return strings.ContainsRune(wordSeparators, r)
	}) {
		word = strings.TrimSpace(word)
		if len(word) < 2 {
			continue
		}
		topic, ok := keywordMap[word]
		if !ok {
			topic, ok = stemmedMap[simpleStem(word)]
		}
		if ok && predefined[topic] {
			counts[topic]++
		}
	}

	if len(counts) == 0 {
		return TopicResult{Topics: []string{"general"}, PrimaryTopic: "general", Confidence: 0.3}
	}

	type pair struct {
		topic string
		count int
	}
	sorted := make([]pair, 0, len(counts))
	for t, c := range counts {
		sorted = append(sorted, pair{t, c})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].topic < sorted[j].topic
	})

	if len(sorted) > 3 {
		sorted = sorted[:3]
	}
	topics := make([]string, len(sorted))
	for i, p := range sorted {
		topics[i] = p.topic
	}
	return TopicResult{Topics: topics, PrimaryTopic: topics[0], Confidence: 0.7}
}
