package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextContent(t *testing.T) {
	m := Message{Content: []ContentBlock{
		{Type: BlockText, Text: "first"},
		{Type: BlockToolUse, ToolUse: &ToolUse{ToolUseID: "tu", Name: "search"}},
		{Type: BlockText, Text: "second"},
	}}
	assert.Equal(t, "first\nsecond", m.TextContent())
	assert.Equal(t, "", (Message{}).TextContent())
}

func TestValidate(t *testing.T) {
	ok := Message{Role: RoleUser, Content: []ContentBlock{{Type: BlockText, Text: "hi"}}}
	require.NoError(t, ok.Validate())

	cases := []struct {
		name string
		msg  Message
	}{
		{"bad role", Message{Role: "operator", Content: []ContentBlock{{Type: BlockText}}}},
		{"no content", Message{Role: RoleUser}},
		{"bad block type", Message{Role: RoleUser, Content: []ContentBlock{{Type: "image"}}}},
		{"tool_use without payload", Message{Role: RoleUser, Content: []ContentBlock{{Type: BlockToolUse}}}},
		{"tool_result without payload", Message{Role: RoleAssistant, Content: []ContentBlock{{Type: BlockToolResult}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.msg.Validate())
		})
	}
}

func TestConversationMeta(t *testing.T) {
	c := Conversation{
		ID:         "conv-1",
		UserID:     "u1",
		Title:      "hello",
		CreateTime: 42,
		Model:      "m",
		BotID:      "b",
		MessageMap: map[string]Message{"x": {}},
	}
	m := c.Meta()
	assert.Equal(t, ConversationMeta{ID: "conv-1", Title: "hello", CreateTime: 42, Model: "m", BotID: "b"}, m)
}

func TestBotHasKnowledge(t *testing.T) {
	assert.False(t, Bot{ID: "b"}.HasKnowledge())
	assert.True(t, Bot{ID: "b", KnowledgeBase: &KnowledgeBase{IndexID: "kb"}}.HasKnowledge())
	assert.False(t, Bot{ID: "b", KnowledgeBase: &KnowledgeBase{}}.HasKnowledge())
}
