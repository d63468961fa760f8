package extract

import "strings"

// ExtractionResult bundles everything the heuristic extractor produces for
// one chunk of text: its topic classification, structured metadata, key
// passages, and content-type/domain filters, plus the flattened enriched
// text built from all of them.
type ExtractionResult struct {
	Topics       TopicResult
	Entities     []string
	Metadata     StructuredMetadata
	KeyPassages  []string
	Filters      DocumentFilters
	EnrichedText string
}

const (
	maxEntitiesPerChunk    = 10
	maxMetadataPerCategory = 5
	maxKeyPassages         = 3
	maxPassageChars        = 500
)

// ExtractAll runs every extraction stage over text and returns the combined
// result, including the enriched text joined for FTS/embedding indexing.
func ExtractAll(text, source, filename string) ExtractionResult {
	result := ExtractionResult{
		Topics:      ClassifyByKeywords(text),
		Entities:    ExtractEntities(text, maxEntitiesPerChunk),
		Metadata:    ExtractStructuredMetadata(text, maxMetadataPerCategory),
		KeyPassages: ExtractKeySentences(text, maxKeyPassages),
		Filters:     GenerateFilters(text, source, filename),
	}
	result.EnrichedText = BuildEnrichedText(result)
	return result
}

// BuildEnrichedText joins labeled, non-empty segments with " | " in a fixed
// order: topics, entities, passages (truncated), persons, organizations,
// locations, technologies. Empty segments are dropped rather than leaving a
// blank label.
func BuildEnrichedText(result ExtractionResult) string {
	var segments []string

	if len(result.Topics.Topics) > 0 {
		segments = append(segments, "topics: "+strings.Join(result.Topics.Topics, " "))
	}
	if len(result.Entities) > 0 {
		segments = append(segments, "entities: "+strings.Join(result.Entities, " "))
	}
	if len(result.KeyPassages) > 0 {
		joined := strings.Join(result.KeyPassages, " ")
		if len(joined) > maxPassageChars {
			joined = joined[:maxPassageChars]
		}
		segments = append(segments, "passages: "+joined)
	}
	if len(result.Metadata.Persons) > 0 {
		segments = append(segments, "persons: "+strings.Join(result.Metadata.Persons, " "))
	}
	if len(result.Metadata.Organizations) > 0 {
		segments = append(segments, "organizations: "+strings.Join(result.Metadata.Organizations, " "))
	}
	if len(result.Metadata.Locations) > 0 {
		segments = append(segments, "locations: "+strings.Join(result.Metadata.Locations, " "))
	}
	if len(result.Metadata.Technologies) > 0 {
		segments = append(segments, "technologies: "+strings.Join(result.Metadata.Technologies, " "))
	}

	return strings.Join(segments, " | ")
}
