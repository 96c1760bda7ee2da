package citation

import (
	"reflect"
	"testing"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/models"
)

func traceMsg(items ...models.ToolResultItem) models.Message {
	return models.Message{
		ID:   "msg-a",
		Role: models.RoleAssistant,
		Content: []models.ContentBlock{
			{Type: models.BlockText, Text: "answer"},
		},
		ThinkingLog: []models.TraceEntry{
			{
				Content: []models.ContentBlock{
					{
						Type: models.BlockToolResult,
						ToolResult: &models.ToolResult{
							ToolUseID: "tu-1",
							Status:    "success",
							Items:     items,
						},
					},
				},
			},
		},
	}
}

func TestEnhanceAttachesLinks(t *testing.T) {
	msg := traceMsg(
		models.ToolResultItem{Text: "cited", SourceID: "msg-a@0"},
		models.ToolResultItem{Text: "uncited", SourceID: "msg-a@9"},
		models.ToolResultItem{Text: "plain"},
	)
	docs := []models.RelatedDocument{
		{SourceID: "msg-a@0", SourceLink: "https://example.com/doc"},
		{SourceID: "msg-a@1", SourceLink: "https://example.com/other"},
	}

	out := Enhance(msg, docs)

	items := out.ThinkingLog[0].Content[0].ToolResult.Items
	if items[0].SourceURL != "https://example.com/doc" {
		t.Fatalf("matched item url = %q", items[0].SourceURL)
	}
	if items[1].SourceURL != "" {
		t.Fatalf("unmatched item gained url %q", items[1].SourceURL)
	}
	if items[2].SourceURL != "" {
		t.Fatalf("item without source id gained url %q", items[2].SourceURL)
	}
}

func TestEnhanceDoesNotMutateInput(t *testing.T) {
	msg := traceMsg(models.ToolResultItem{Text: "cited", SourceID: "msg-a@0"})
	docs := []models.RelatedDocument{{SourceID: "msg-a@0", SourceLink: "https://example.com"}}

	_ = Enhance(msg, docs)

	if got := msg.ThinkingLog[0].Content[0].ToolResult.Items[0].SourceURL; got != "" {
		t.Fatalf("input message mutated: url = %q", got)
	}
}

func TestEnhanceNoTrace(t *testing.T) {
	msg := models.Message{
		ID:      "msg-b",
		Role:    models.RoleAssistant,
		Content: []models.ContentBlock{{Type: models.BlockText, Text: "answer"}},
	}
	docs := []models.RelatedDocument{{SourceID: "msg-b@0", SourceLink: "https://example.com"}}

	out := Enhance(msg, docs)
	if len(out.ThinkingLog) != 0 {
		t.Fatalf("trace appeared from nowhere: %+v", out.ThinkingLog)
	}
}

// Stored traces are not validated on write, so the enhancer must tolerate
// blocks whose payload is missing and hand the message back unchanged.
func TestEnhanceMalformedTrace(t *testing.T) {
	msg := models.Message{
		ID:   "msg-a",
		Role: models.RoleAssistant,
		Content: []models.ContentBlock{
			{Type: models.BlockText, Text: "answer"},
		},
		ThinkingLog: []models.TraceEntry{
			{
				Content: []models.ContentBlock{
					{Type: models.BlockToolResult, ToolResult: nil},
					{Type: models.BlockText, Text: "stray note"},
					{Type: models.BlockToolUse, ToolUse: nil},
				},
			},
			{Content: nil},
		},
	}
	docs := []models.RelatedDocument{{SourceID: "msg-a@0", SourceLink: "https://example.com"}}

	out := Enhance(msg, docs)

	if !reflect.DeepEqual(out.ThinkingLog, msg.ThinkingLog) {
		t.Fatalf("malformed trace rewritten:\n got %+v\nwant %+v", out.ThinkingLog, msg.ThinkingLog)
	}
	if out.ThinkingLog[0].Content[0].ToolResult != nil {
		t.Fatalf("payload appeared from nowhere: %+v", out.ThinkingLog[0].Content[0])
	}
}

func TestEnhanceNoDocuments(t *testing.T) {
	msg := traceMsg(models.ToolResultItem{Text: "cited", SourceID: "msg-a@0"})
	out := Enhance(msg, nil)
	if got := out.ThinkingLog[0].Content[0].ToolResult.Items[0].SourceURL; got != "" {
		t.Fatalf("url set without documents: %q", got)
	}
}
