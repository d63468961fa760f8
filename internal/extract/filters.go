package extract

import (
	"regexp"
	"strings"
)

// DocumentFilters are the coarse-grained content-type/domain tags attached
// to a document so the resolver can narrow a search without touching the
// full-text or vector indexes.
type DocumentFilters struct {
	ContentType string
	Domain      string
}

var (
	conversationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(user|assistant|human|ai)\s*:`),
		regexp.MustCompile(`(?m)^(q:|a:|question:|answer:)`),
		regexp.MustCompile(`\[message\]|\[reply\]`),
	}
	codePatterns = []*regexp.Regexp{
		regexp.MustCompile("```[\\w]*\n"),
		regexp.MustCompile(`def\s+\w+\s*\(|function\s+\w+\s*\(|class\s+\w+`),
		regexp.MustCompile(`import\s+[\w.]+|from\s+[\w.]+\s+import`),
	}
	meetingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`meeting\s+notes?|agenda|attendees|action\s+items`),
		regexp.MustCompile(`discussed|agreed|decided|next\s+steps`),
	}
	listPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*[-*]\s+\[[ x]\]`),
		regexp.MustCompile(`(?m)^\s*\d+\.\s+\w+`),
	}
	emailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`from:\s*\S+@\S+|to:\s*\S+@\S+|subject:`),
		regexp.MustCompile(`dear\s+\w+|regards,|sincerely,`),
	}
)

// GenerateFilters classifies a document's content type and domain from its
// text, an optional source label, and an optional filename.
func GenerateFilters(text, source, filename string) DocumentFilters {
	textLower := strings.ToLower(text)
	filenameLower := strings.ToLower(filename)

	return DocumentFilters{
		ContentType: classifyContentType(textLower, filenameLower, source, text),
		Domain:      classifyDomain(textLower),
	}
}

// classifyContentType starts from the source hint's default and lets later,
// more specific pattern families override earlier ones; the override order
// (conversation, code, documentation, meeting, list, email) is fixed.
func classifyContentType(textLower, filenameLower, source, rawText string) string {
	contentType := "note"
	switch source {
	case "chatgpt":
		contentType = "conversation"
	case "readwise":
		contentType = "highlight"
	case "github":
		contentType = "code"
	case "notion":
		contentType = "note"
	case "todoist":
		contentType = "list"
	}

	if anyMatch(textLower, conversationPatterns) {
		contentType = "conversation"
	}

	// Code patterns run on the raw text to preserve case.
	if anyMatch(rawText, codePatterns) {
		contentType = "code"
	}

	if (strings.Contains(filenameLower, "readme") || strings.Contains(filenameLower, "doc")) &&
		(strings.Contains(textLower, "documentation") ||
			strings.Contains(textLower, "api reference") ||
			strings.Contains(textLower, "getting started")) {
		contentType = "documentation"
	}

	if anyMatch(textLower, meetingPatterns) {
		contentType = "meeting"
	}

	if anyMatch(textLower, listPatterns) ||
		strings.Contains(textLower, "todo") ||
		strings.Contains(textLower, "checklist") {
		contentType = "list"
	}

	if anyMatch(textLower, emailPatterns) {
		contentType = "email"
	}

	return contentType
}

// domainKeywords are checked in a fixed order; the highest hit count wins
// when it reaches 2, otherwise the document stays "personal".
var domainKeywords = []struct {
	domain   string
	keywords []string
}{
	{"work", []string{
		"project", "deadline", "client", "meeting", "team", "report",
		"quarterly", "kpi", "revenue", "stakeholder", "deliverable",
		"sprint", "standup", "roadmap", "milestone",
	}},
	{"technical", []string{
		"code", "api", "database", "server", "deploy", "bug", "feature",
		"function", "class", "variable", "algorithm", "architecture",
		"docker", "kubernetes", "python", "javascript", "git",
	}},
	{"learning", []string{
		"learn", "study", "course", "tutorial", "lesson", "chapter",
		"concept", "understand", "example", "practice", "exercise",
	}},
	{"creative", []string{
		"idea", "story", "write", "draft", "creative", "inspiration",
		"brainstorm", "imagine", "design", "concept", "sketch",
	}},
	{"personal", []string{
		"journal", "diary", "today i", "feeling", "thought", "memory",
		"family", "friend", "weekend", "vacation", "birthday",
	}},
	{"finance", []string{
		"budget", "expense", "income", "investment", "savings", "tax",
		"payment", "invoice", "salary", "cost", "price", "money",
	}},
}

func classifyDomain(textLower string) string {
	bestDomain := "personal"
	bestScore := 0

	for _, entry := range domainKeywords {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(textLower, kw) {
				score++
			}
		}
		if score > bestScore && score >= 2 {
			bestScore = score
			bestDomain = entry.domain
		}
	}
	return bestDomain
}

func anyMatch(text string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
