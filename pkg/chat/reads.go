package chat

import (
	"context"
	"fmt"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/citation"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/models"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/store"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/tree"
)

// FetchConversation returns the conversation with every message's trace
// citations enhanced. Enhancement is read-only; the stored record is not
// touched.
func FetchConversation(userID, convID string) (models.Conversation, error) {
	conv, err := store.GetConversation(userID, convID)
	if err != nil {
		return models.Conversation{}, err
	}
	docs, err := store.ListRelatedDocuments(convID)
	if err != nil {
		return models.Conversation{}, err
	}
	if len(docs) > 0 {
		enhanced := make(map[string]models.Message, len(conv.MessageMap))
		for id, m := range conv.MessageMap {
			enhanced[id] = citation.Enhance(m, docs)
		}
		conv.MessageMap = enhanced
	}
	return conv, nil
}

// GetMessage returns one message, enhanced.
func GetMessage(userID, convID, msgID string) (models.Message, error) {
	conv, err := store.GetConversation(userID, convID)
	if err != nil {
		return models.Message{}, err
	}
	msg, ok := conv.MessageMap[msgID]
	if !ok {
		return models.Message{}, fmt.Errorf("message %s: %w", msgID, store.ErrNotFound)
	}
	docs, err := store.ListRelatedDocuments(convID)
	if err != nil {
		return models.Message{}, err
	}
	return citation.Enhance(msg, docs), nil
}

// OriginalAnswer returns the first reply recorded under a message, enhanced.
// Regenerated answers branch off later and are reached through the latest
// descendant instead; a message that was never answered is NotFound.
func OriginalAnswer(userID, convID, msgID string) (models.Message, error) {
	conv, err := store.GetConversation(userID, convID)
	if err != nil {
		return models.Message{}, err
	}
	child, err := tree.ChildOf(conv.MessageMap, msgID)
	if err != nil {
		return models.Message{}, err
	}
	if child == nil {
		return models.Message{}, fmt.Errorf("message %s has no answer: %w", msgID, store.ErrNotFound)
	}
	docs, err := store.ListRelatedDocuments(convID)
	if err != nil {
		return models.Message{}, err
	}
	return citation.Enhance(*child, docs), nil
}

// AttachFeedback overwrites the feedback record on a message. Feedback is
// the one mutable field of an otherwise immutable message.
func AttachFeedback(userID, convID, msgID string, fb models.Feedback) error {
	unlock := store.LockConversation(convID)
	defer unlock()

	conv, err := store.GetConversation(userID, convID)
	if err != nil {
		return err
	}
	msg, ok := conv.MessageMap[msgID]
	if !ok {
		return fmt.Errorf("message %s: %w", msgID, store.ErrNotFound)
	}
	msg.Feedback = &fb
	conv.MessageMap[msgID] = msg
	return store.SaveConversation(conv)
}

// ProposeTitle asks the provider for a short title based on the active
// branch of the conversation.
func (o *Orchestrator) ProposeTitle(ctx context.Context, userID, convID string) (string, error) {
	conv, err := store.GetConversation(userID, convID)
	if err != nil {
		return "", err
	}
	root, ok := tree.Root(conv.MessageMap)
	if !ok {
		return "", fmt.Errorf("conversation %s has no root: %w", convID, tree.ErrBrokenChain)
	}
	leaf, err := tree.LatestDescendant(conv.MessageMap, root.ID)
	if err != nil {
		return "", err
	}
	path, err := tree.PathToRoot(conv.MessageMap, leaf.ID)
	if err != nil {
		return "", err
	}
	instruction := models.Message{
		Role: models.RoleUser,
		Content: []models.ContentBlock{{
			Type: models.BlockText,
			Text: "Propose a concise title for this conversation, ten words or fewer. Reply with the title only.",
		}},
	}
	reply, err := o.invoker.Invoke(ctx, append(path, instruction), nil)
	if err != nil {
		return "", err
	}
	return titleFromText(reply.TextContent()), nil
}

// ChangeTitle sets the conversation title.
func ChangeTitle(userID, convID, title string) error {
	unlock := store.LockConversation(convID)
	defer unlock()

	conv, err := store.GetConversation(userID, convID)
	if err != nil {
		return err
	}
	conv.Title = title
	return store.SaveConversation(conv)
}
