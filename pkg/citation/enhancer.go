package citation

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/logger"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/models"
)

// Enhance returns a copy of msg in which every tool-result item whose
// source id matches one of the conversation's related documents gains a
// source_url with that document's link. Items with no match are left alone,
// and a message without a thinking log is returned as-is.
//
// Enhancement is cosmetic and best-effort: any failure while rebuilding the
// message returns the original unmodified rather than failing the read.
func Enhance(msg models.Message, docs []models.RelatedDocument) models.Message {
	if len(msg.ThinkingLog) == 0 || len(docs) == 0 {
		return msg
	}
	links := make(map[string]string, len(docs))
	for _, d := range docs {
		links[d.SourceID] = d.SourceLink
	}

	out, err := deepCopy(msg)
	if err != nil {
		logger.Warn("citation_enhance_skipped", zap.String("message", msg.ID), zap.Error(err))
		return msg
	}
	for ei := range out.ThinkingLog {
		entry := &out.ThinkingLog[ei]
		for bi := range entry.Content {
			block := &entry.Content[bi]
			if block.Type != models.BlockToolResult || block.ToolResult == nil {
				continue
			}
			for ii := range block.ToolResult.Items {
				item := &block.ToolResult.Items[ii]
				if item.SourceID == "" {
					continue
				}
				if link, ok := links[item.SourceID]; ok {
					item.SourceURL = link
				}
			}
		}
	}
	return out
}

// deepCopy clones the message through JSON so enhancement never aliases the
// stored record's slices.
func deepCopy(msg models.Message) (models.Message, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return models.Message{}, err
	}
	var out models.Message
	if err := json.Unmarshal(b, &out); err != nil {
		return models.Message{}, err
	}
	return out, nil
}
