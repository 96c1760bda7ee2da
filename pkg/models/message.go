package models

import (
	"encoding/json"
	"fmt"
)

// Roles a message can carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Content block discriminators. Blocks are a closed tagged union so trace
// traversal is exhaustive instead of presence-tested.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// ContentBlock is one element of a message's ordered content. Exactly one of
// Text, ToolUse or ToolResult is set, according to Type.
type ContentBlock struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	ToolUse    *ToolUse    `json:"tool_use,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// ToolUse records a tool invocation emitted by the model.
type ToolUse struct {
	ToolUseID string          `json:"tool_use_id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input,omitempty"`
}

// ToolResult carries the result of a tool invocation. Items whose SourceID
// matches a stored related document gain a SourceURL when a message is read.
type ToolResult struct {
	ToolUseID string           `json:"tool_use_id"`
	Status    string           `json:"status,omitempty"`
	Items     []ToolResultItem `json:"items"`
}

// ToolResultItem is a single entry in a tool result body. The structured
// payload is optional; plain text results leave SourceID empty.
type ToolResultItem struct {
	Text      string `json:"text,omitempty"`
	SourceID  string `json:"source_id,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
}

// TraceEntry is one step of an assistant message's thinking log.
type TraceEntry struct {
	Content []ContentBlock `json:"content"`
}

// Message is a single conversation turn. Messages form a tree: ParentID is
// empty only for the root, Children is append-only in creation order.
type Message struct {
	ID          string         `json:"id"`
	Role        string         `json:"role"`
	Content     []ContentBlock `json:"content"`
	ParentID    string         `json:"parent_id,omitempty"`
	Children    []string       `json:"children"`
	CreateTime  int64          `json:"create_time"`
	Model       string         `json:"model,omitempty"`
	ThinkingLog []TraceEntry   `json:"thinking_log,omitempty"`
	Feedback    *Feedback      `json:"feedback,omitempty"`
}

// TextContent concatenates the message's text blocks. Used as the retrieval
// query and for title proposals.
func (m Message) TextContent() string {
	out := ""
	for _, b := range m.Content {
		if b.Type == BlockText {
			if out != "" {
				out += "\n"
			}
			out += b.Text
		}
	}
	return out
}

// Validate checks the closed role and block-type enumerations.
func (m Message) Validate() error {
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return fmt.Errorf("invalid role: %q", m.Role)
	}
	if len(m.Content) == 0 {
		return fmt.Errorf("content is required")
	}
	for i, b := range m.Content {
		switch b.Type {
		case BlockText:
		case BlockToolUse:
			if b.ToolUse == nil {
				return fmt.Errorf("content[%d]: tool_use block missing payload", i)
			}
		case BlockToolResult:
			if b.ToolResult == nil {
				return fmt.Errorf("content[%d]: tool_result block missing payload", i)
			}
		default:
			return fmt.Errorf("content[%d]: invalid block type %q", i, b.Type)
		}
	}
	return nil
}
