// Package citation reconciles retrieval results with the source references
// embedded in an assistant message's thinking log.
package citation

import (
	"fmt"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/models"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/retrieval"
)

// SourceID composes the deterministic source identifier for one retrieval
// result: "{base}@{rank}", unique within a single retrieval invocation.
func SourceID(base string, rank int) string {
	return fmt.Sprintf("%s@%d", base, rank)
}

// Map converts search results into related-document records, one per result,
// preserving input order. Pure construction: no side effects.
func Map(results []retrieval.SearchResult, sourceIDBase string) []models.RelatedDocument {
	out := make([]models.RelatedDocument, 0, len(results))
	for _, r := range results {
		out = append(out, models.RelatedDocument{
			SourceID:   SourceID(sourceIDBase, r.Rank),
			Content:    r.Content,
			SourceName: r.SourceName,
			SourceLink: r.SourceLink,
		})
	}
	return out
}
