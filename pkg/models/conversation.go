package models

// Conversation is the unit of ownership and mutation. MessageMap holds every
// message of the conversation keyed by id; the messages form a tree rooted
// at the single entry with an empty parent id.
type Conversation struct {
	ID         string             `json:"id"`
	UserID     string             `json:"user_id"`
	Title      string             `json:"title,omitempty"`
	CreateTime int64              `json:"create_time"`
	Model      string             `json:"model,omitempty"`
	BotID      string             `json:"bot_id,omitempty"`
	MessageMap map[string]Message `json:"message_map"`
}

// ConversationMeta is the listing view of a conversation, without messages.
type ConversationMeta struct {
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	CreateTime int64  `json:"create_time"`
	Model      string `json:"model,omitempty"`
	BotID      string `json:"bot_id,omitempty"`
}

// Meta returns the metadata view of the conversation.
func (c Conversation) Meta() ConversationMeta {
	return ConversationMeta{
		ID:         c.ID,
		Title:      c.Title,
		CreateTime: c.CreateTime,
		Model:      c.Model,
		BotID:      c.BotID,
	}
}

// RelatedDocument is one retrieved passage persisted alongside the turn that
// triggered retrieval. SourceID is "{base}@{rank}" where base is the id of
// the assistant message the citations belong to. Never mutated after
// creation; superseded by documents from a later turn.
type RelatedDocument struct {
	SourceID   string `json:"source_id"`
	Content    string `json:"content"`
	SourceName string `json:"source_name"`
	SourceLink string `json:"source_link"`
}

// Feedback is attached to a single message. At most one record per message;
// resubmission overwrites.
type Feedback struct {
	ThumbsUp bool   `json:"thumbs_up"`
	Category string `json:"category,omitempty"`
	Comment  string `json:"comment,omitempty"`
}
