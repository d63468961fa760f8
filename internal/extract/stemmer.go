// Package extract implements the heuristic metadata extractor: topic
// classification, entity and structured-metadata extraction, key-passage
// scoring, and document content-type/domain filters. It stands in for an
// LLM-based annotator — keyword matching, stemming, and regex patterns
// instead of a model, so ingestion never needs GPU memory for annotation.
package extract

// suffixRule is one (suffix, replacement) pair tried in order; the first
// matching suffix wins.
type suffixRule struct {
	suffix      string
	replacement string
}

// suffixRules mirrors the reference stemmer's ordered table: doubled
// consonants and irregular endings are listed before their generic form so
// they're matched first.
var suffixRules = []suffixRule{
	{"pping", "p"}, {"tting", "t"}, {"nning", "n"}, {"mming", "m"}, {"dding", "d"},
	{"gging", "g"}, {"bing", "b"}, {"ying", "y"}, {"eing", "e"}, {"uing", "ue"},
	{"oing", "o"}, {"ting", "t"}, {"ning", "n"}, {"ming", "m"}, {"king", "k"},
	{"ding", "d"}, {"ring", "r"}, {"ling", "l"}, {"sing", "s"}, {"zing", "z"},
	{"cing", "c"}, {"ping", "p"}, {"ing", ""},

	{"pped", "p"}, {"tted", "t"}, {"nned", "n"}, {"mmed", "m"}, {"dded", "d"},
	{"gged", "g"}, {"bbed", "b"}, {"ied", "y"}, {"eed", "ee"}, {"ued", "ue"},
	{"owed", "ow"}, {"awed", "aw"}, {"wed", "w"}, {"ted", "t"}, {"ned", "n"},
	{"med", "m"}, {"ked", "k"}, {"ded", "d"}, {"red", "r"}, {"led", "l"},
	{"sed", "s"}, {"zed", "z"}, {"ced", "c"}, {"ped", "p"}, {"ved", "ve"}, {"ed", ""},

	{"ies", "y"}, {"ches", "ch"}, {"shes", "sh"}, {"xes", "x"}, {"zes", "z"},
	{"ses", "s"}, {"oes", "o"}, {"es", "e"},
	{"iness", "y"}, {"ness", ""}, {"less", ""},
	{"ss", "ss"}, {"us", "us"},
	{"is", "is"}, {"s", ""},

	{"ier", "y"}, {"pper", "p"}, {"tter", "t"}, {"nner", "n"}, {"mmer", "m"},
	{"dder", "d"}, {"gger", "g"}, {"bber", "b"}, {"ler", "l"}, {"ner", "n"},
	{"ter", "t"}, {"ser", "s"}, {"zer", "z"}, {"cer", "c"}, {"per", "p"},
	{"ker", "k"}, {"der", "d"}, {"er", ""}, {"or", ""},

	{"ation", ""}, {"ition", ""}, {"ution", ""}, {"tion", ""}, {"sion", ""},

	{"ment", ""}, {"ily", "y"}, {"ally", "al"},
	{"ly", ""}, {"ful", ""}, {"able", ""}, {"ible", ""},
	{"ity", ""}, {"ative", ""}, {"itive", ""}, {"ive", ""}, {"ious", ""},
	{"eous", ""}, {"ous", ""}, {"ical", "ic"}, {"ual", ""}, {"al", ""},
}

// simpleStem removes a common English suffix without any external
// dependency, trading linguistic precision for a keyword lookup that
// always stems the same word the same way.
func simpleStem(word string) string {
	if len(word) <= 3 {
		return word
	}
	for _, rule := range suffixRules {
		if len(word) > len(rule.suffix)+1 && hasSuffix(word, rule.suffix) {
			return word[:len(word)-len(rule.suffix)] + rule.replacement
		}
	}
	return word
}

func hasSuffix(word, suffix string) bool {
	if len(word) < len(suffix) {
		return false
	}
	return word[len(word)-len(suffix):] == suffix
}
