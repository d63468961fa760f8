package extract

import (
	"regexp"
	"sort"
	"strings"
)

var (
	camelCaseRe  = regexp.MustCompile(`\b[a-z]+[A-Z][a-zA-Z]*\b`)
	snakeCaseRe  = regexp.MustCompile(`\b[a-z]+_[a-z_]+\b`)
	allCapsRe    = regexp.MustCompile(`\b[A-Z][A-Z_]{2,}\b`)
	quotedTermRe = regexp.MustCompile(`["']([^"']{2,30})["']`)
)

// ExtractEntities finds capitalized tokens (skipping sentence-initial and
// all-caps words), camelCase/snake_case/ALL_CAPS technical identifiers, and
// quoted 2-30 char strings, dedups, and keeps at most maxEntities ranked by
// descending occurrence count in the lowercased text.
func ExtractEntities(text string, maxEntities int) []string {
	seen := map[string]bool{}
	var entities []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			entities = append(entities, s)
		}
	}

	for _, sentence := range splitSentences(text) {
		words := strings.Fields(sentence)
		for i, word := range words {
			if i == 0 || len(word) <= 2 {
				continue
			}
			cleaned := strings.Map(func(r rune) rune {
				if isAlphanumeric(r) {
					return r
				}
				return -1
			}, word)
			if cleaned == "" {
				continue
			}
			first := []rune(cleaned)[0]
			if !isUpper(first) || isAllUpper(cleaned) {
				continue
			}
			add(cleaned)
		}
	}

	for _, m := range camelCaseRe.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range snakeCaseRe.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range allCapsRe.FindAllString(text, -1) {
		add(m)
	}
	for _, cap := range quotedTermRe.FindAllStringSubmatch(text, -1) {
		add(cap[1])
	}

	textLower := strings.ToLower(text)
	sort.SliceStable(entities, func(i, j int) bool {
		ci := strings.Count(textLower, strings.ToLower(entities[i]))
		cj := strings.Count(textLower, strings.ToLower(entities[j]))
		return ci > cj
	})
	if len(entities) > maxEntities {
		entities = entities[:maxEntities]
	}
	return entities
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func isAllUpper(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
	}
	return true
}

// splitSentences splits on '.', '!', or '?' followed by whitespace, without
// needing lookbehind. Mirrors the reference extractor's sentence splitter
// used by both entity extraction and key-passage scoring.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i+1 < len(text); i++ {
		b := text[i]
		if (b == '.' || b == '!' || b == '?') && isASCIISpace(text[i+1]) {
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

// StructuredMetadata is the per-category regex-extracted metadata rolled up
// into the document's enriched text.
type StructuredMetadata struct {
	Persons       []string
	Organizations []string
	Locations     []string
	Dates         []string
	Times         []string
	TemporalRefs  []string
	Quantities    []string
	Activities    []string
	Technologies  []string
}

var dateRes = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2}(?:st|nd|rd|th)?,?\s*\d{4}\b`),
	regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s*\d{4}\b`),
	regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b`),
	regexp.MustCompile(`\b\d{4}[-/]\d{1,2}[-/]\d{1,2}\b`),
	regexp.MustCompile(`\bQ[1-4]\s*\d{4}\b`),
}

var timeRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s*(?:AM|PM)?\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s*(?:AM|PM)\b`),
}

var temporalRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:last|next|this|previous|upcoming)\s+(?:week|month|year|quarter|day|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	regexp.MustCompile(`(?i)\b(?:yesterday|today|tomorrow)\b`),
	regexp.MustCompile(`(?i)\b(?:recently|soon|earlier|later)\b`),
}

var quantityRes = []*regexp.Regexp{
	regexp.MustCompile(`\$[\d,]+(?:\.\d{2})?\s*(?:million|billion|M|B|K)?\b`),
	regexp.MustCompile(`\b\d+(?:,\d{3})*(?:\.\d+)?\s*(?:users|customers|employees|people|items|orders|requests|GB|MB|KB|TB|ms|seconds|minutes|hours|days|%|percent)\b`),
	regexp.MustCompile(`\b\d+(?:\.\d+)?[xX]\b`),
}

var activityRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:deployed|released|launched|shipped|implemented|developed|built|created|designed|reviewed|analyzed|tested|fixed|updated|migrated|refactored|optimized|integrated|configured|monitored|debugged|resolved|completed|approved|merged|committed)\b`),
	regexp.MustCompile(`(?i)\b(?:deploying|releasing|launching|shipping|implementing|developing|building|creating|designing|reviewing|analyzing|testing|fixing|updating|migrating|refactoring|optimizing|integrating|configuring|monitoring|debugging|resolving|completing|approving|merging|committing)\b`),
}

var titlePersonRe = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)
var twoCapWordsRe = regexp.MustCompile(`\b([A-Z][a-z]+\s+[A-Z][a-z]+)\b`)
var orgSuffixRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:Inc\.|Corp\.|LLC|Ltd\.|Co\.)`)

// techKeywords is the fixed list of recognized technology names; structured
// metadata extraction also picks up camelCase/snake_case identifiers.
var techKeywords = []string{
	"Python", "JavaScript", "TypeScript", "Java", "C++", "C#", "Go", "Rust",
	"Ruby", "PHP", "Swift", "Kotlin", "React", "Angular", "Vue", "Node.js",
	"Django", "Flask", "FastAPI", "Spring", "Rails", "PostgreSQL", "MySQL",
	"MongoDB", "Redis", "Elasticsearch", "SQLite", "Docker", "Kubernetes",
	"AWS", "Azure", "GCP", "Terraform", "Ansible", "Git", "GitHub", "GitLab",
	"Jenkins", "TensorFlow", "PyTorch", "Keras", "REST", "GraphQL", "gRPC",
	"WebSocket", "HTTP", "API", "Linux", "Windows", "macOS", "Ubuntu",
	"OAuth", "JWT", "SSL", "TLS", "Kafka", "RabbitMQ", "Jira", "Slack",
}

// ExtractStructuredMetadata runs every per-category regex pattern, truncating
// each category to maxPerCategory results. Locations are always empty — the
// reference implementation notes it would need NER for reliable extraction.
func ExtractStructuredMetadata(text string, maxPerCategory int) StructuredMetadata {
	return StructuredMetadata{
		Dates:         extractWithPatterns(text, dateRes, maxPerCategory),
		Times:         extractWithPatterns(text, timeRes, maxPerCategory),
		TemporalRefs:  extractWithPatterns(text, temporalRes, maxPerCategory),
		Quantities:    extractWithPatterns(text, quantityRes, maxPerCategory),
		Technologies:  extractTechnologies(text, maxPerCategory),
		Activities:    extractActivities(text, maxPerCategory),
		Persons:       extractPersons(text, maxPerCategory),
		Organizations: extractOrganizations(text, maxPerCategory),
		Locations:     nil,
	}
}

func extractWithPatterns(text string, patterns []*regexp.Regexp, max int) []string {
	seen := map[string]bool{}
	var results []string
	for _, re := range patterns {
		for _, m := range re.FindAllString(text, -1) {
			if !seen[m] {
				seen[m] = true
				results = append(results, m)
			}
		}
	}
	if len(results) > max {
		results = results[:max]
	}
	return results
}

func extractTechnologies(text string, max int) []string {
	var techs []string
	contains := func(s string) bool {
		for _, t := range techs {
			if t == s {
				return true
			}
		}
		return false
	}
	for _, tech := range techKeywords {
		if regexp.MustCompile(`\b` + regexp.QuoteMeta(tech) + `\b`).MatchString(text) {
			techs = append(techs, tech)
		}
	}
	camelRe := regexp.MustCompile(`\b[a-z]+(?:[A-Z][a-z]+)+\b`)
	snakeRe := regexp.MustCompile(`\b[a-z]+(?:_[a-z]+)+\b`)
	for _, m := range camelRe.FindAllString(text, -1) {
		if len(m) > 3 && !contains(m) {
			techs = append(techs, m)
		}
	}
	for _, m := range snakeRe.FindAllString(text, -1) {
		if len(m) > 3 && !contains(m) {
			techs = append(techs, m)
		}
	}
	if len(techs) > max {
		techs = techs[:max]
	}
	return techs
}

func extractActivities(text string, max int) []string {
	raw := extractWithPatterns(text, activityRes, max*2)
	seen := map[string]bool{}
	var activities []string
	for _, a := range raw {
		lower := strings.ToLower(a)
		if !seen[lower] {
			seen[lower] = true
			activities = append(activities, lower)
		}
	}
	if len(activities) > max {
		activities = activities[:max]
	}
	return activities
}

func extractPersons(text string, max int) []string {
	var persons []string
	seen := map[string]bool{}
	for _, cap := range titlePersonRe.FindAllStringSubmatch(text, -1) {
		if !seen[cap[1]] {
			seen[cap[1]] = true
			persons = append(persons, cap[1])
		}
	}
	for _, m := range twoCapWordsRe.FindAllStringIndex(text, -1) {
		name := text[m[0]:m[1]]
		if m[0] > 2 && !seen[name] {
			seen[name] = true
			persons = append(persons, name)
		}
	}
	if len(persons) > max {
		persons = persons[:max]
	}
	return persons
}

func extractOrganizations(text string, max int) []string {
	var orgs []string
	for _, cap := range orgSuffixRe.FindAllString(text, -1) {
		orgs = append(orgs, cap)
	}
	if len(orgs) > max {
		orgs = orgs[:max]
	}
	return orgs
}
