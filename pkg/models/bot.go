package models

// Bot is the subset of bot configuration the chat pipeline needs: whether
// the bot is knowledge-augmented and, if so, how to query its index.
// Full bot management lives outside this service.
type Bot struct {
	ID            string         `json:"id"`
	Title         string         `json:"title,omitempty"`
	Instruction   string         `json:"instruction,omitempty"`
	KnowledgeBase *KnowledgeBase `json:"knowledge_base,omitempty"`
}

// KnowledgeBase holds the retrieval parameters for a knowledge-augmented bot.
type KnowledgeBase struct {
	IndexID    string `json:"index_id"`
	SearchType string `json:"search_type"`
	MaxResults int    `json:"max_results"`
}

// HasKnowledge reports whether turns against this bot should run retrieval.
func (b Bot) HasKnowledge() bool {
	return b.KnowledgeBase != nil && b.KnowledgeBase.IndexID != ""
}
