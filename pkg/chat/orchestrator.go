// Package chat orchestrates one conversation turn: parent resolution,
// optional retrieval, model invocation and persistence of the reply.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/citation"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/logger"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/models"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/provider"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/retrieval"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/store"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/telemetry"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/tree"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/utils"
)

// Orchestrator wires the retrieval client and model provider into the turn
// pipeline. Both are injected at construction; the orchestrator owns no
// process-wide state.
type Orchestrator struct {
	searcher    retrieval.Searcher
	invoker     provider.Invoker
	warnDropped bool
}

// New builds an orchestrator.
func New(searcher retrieval.Searcher, invoker provider.Invoker, warnDropped bool) *Orchestrator {
	return &Orchestrator{searcher: searcher, invoker: invoker, warnDropped: warnDropped}
}

// Input is one user turn.
type Input struct {
	UserID          string
	BotID           string
	ConversationID  string
	ParentMessageID string
	Message         models.Message
	// Continue appends the reply to the current leaf without inserting a
	// new user message ("continue generation").
	Continue bool
}

// SubmitTurn runs the turn pipeline and returns the updated conversation and
// the new assistant message.
//
// Failures during retrieval or invocation leave the user message persisted
// (so a retry reuses the same parent) but create no assistant child.
func (o *Orchestrator) SubmitTurn(ctx context.Context, in Input) (models.Conversation, models.Message, error) {
	conv, userMsg, err := o.resolveAndPersistUserTurn(in)
	if err != nil {
		return models.Conversation{}, models.Message{}, err
	}
	telemetry.TurnsStarted.Inc()

	// citations belong to the answer, so the source-id base is the id the
	// reply will be stored under
	assistantID := utils.GenMessageID()

	var bot *models.Bot
	var grounding *retrieval.GroundingBlock
	var docs []models.RelatedDocument
	if in.BotID != "" || conv.BotID != "" {
		botID := in.BotID
		if botID == "" {
			botID = conv.BotID
		}
		b, err := store.GetBot(botID)
		if err != nil {
			return models.Conversation{}, models.Message{}, err
		}
		bot = &b
		if b.HasKnowledge() {
			grounding, docs, err = o.retrieve(ctx, b, userMsg.TextContent(), assistantID)
			if err != nil {
				return models.Conversation{}, models.Message{}, err
			}
		}
	}

	path, err := tree.PathToRoot(conv.MessageMap, userMsg.ID)
	if err != nil {
		return models.Conversation{}, models.Message{}, err
	}
	msgs := path
	if bot != nil && bot.Instruction != "" {
		// the bot's instruction steers every completion for its turns
		msgs = append([]models.Message{{
			Role:    models.RoleSystem,
			Content: []models.ContentBlock{{Type: models.BlockText, Text: bot.Instruction}},
		}}, path...)
	}
	reply, err := o.invoker.Invoke(ctx, msgs, grounding)
	if err != nil {
		telemetry.TurnsFailed.Inc()
		return models.Conversation{}, models.Message{}, err
	}
	reply.ID = assistantID

	conv, err = o.persistReply(conv.UserID, conv.ID, userMsg.ID, reply, docs)
	if err != nil {
		return models.Conversation{}, models.Message{}, err
	}
	telemetry.TurnsCompleted.Inc()
	logger.Info("turn_completed",
		zap.String("conversation", conv.ID),
		zap.String("user_message", userMsg.ID),
		zap.String("assistant_message", assistantID),
	)
	return conv, conv.MessageMap[assistantID], nil
}

// resolveAndPersistUserTurn loads or creates the conversation, resolves the
// parent node and links the user message in. The conversation lock is held
// only around the read-modify-write; retrieval and invocation run unlocked.
func (o *Orchestrator) resolveAndPersistUserTurn(in Input) (models.Conversation, models.Message, error) {
	if in.ConversationID == "" {
		if in.Continue {
			// a continuation extends a leaf that already exists
			return models.Conversation{}, models.Message{}, fmt.Errorf("continue without a conversation: %w", store.ErrNotFound)
		}
		conv := models.Conversation{
			ID:         utils.GenConversationID(),
			UserID:     in.UserID,
			BotID:      in.BotID,
			CreateTime: utils.CurrentTimeMillis(),
			MessageMap: map[string]models.Message{},
		}
		msg := in.Message
		msg.ID = utils.GenMessageID()
		msg.Role = models.RoleUser
		msg.CreateTime = utils.CurrentTimeMillis()
		if _, err := tree.Insert(conv.MessageMap, "", msg); err != nil {
			return models.Conversation{}, models.Message{}, err
		}
		conv.Title = titleFromText(msg.TextContent())
		if err := store.SaveConversation(conv); err != nil {
			return models.Conversation{}, models.Message{}, err
		}
		return conv, conv.MessageMap[msg.ID], nil
	}

	unlock := store.LockConversation(in.ConversationID)
	defer unlock()

	conv, err := store.GetConversation(in.UserID, in.ConversationID)
	if err != nil {
		return models.Conversation{}, models.Message{}, err
	}

	parentID := in.ParentMessageID
	if parentID == "" {
		root, ok := tree.Root(conv.MessageMap)
		if !ok {
			return models.Conversation{}, models.Message{}, fmt.Errorf("conversation %s has no root: %w", conv.ID, tree.ErrBrokenChain)
		}
		leaf, err := tree.LatestDescendant(conv.MessageMap, root.ID)
		if err != nil {
			return models.Conversation{}, models.Message{}, err
		}
		parentID = leaf.ID
	}

	if in.Continue {
		// continue generation: no new user node, the reply extends the
		// resolved leaf directly
		leaf, ok := conv.MessageMap[parentID]
		if !ok {
			return models.Conversation{}, models.Message{}, fmt.Errorf("continue %s: %w", parentID, tree.ErrNotFound)
		}
		return conv, leaf, nil
	}

	msg := in.Message
	msg.ID = utils.GenMessageID()
	msg.Role = models.RoleUser
	msg.CreateTime = utils.CurrentTimeMillis()
	if _, err := tree.Insert(conv.MessageMap, parentID, msg); err != nil {
		return models.Conversation{}, models.Message{}, err
	}
	if err := store.SaveConversation(conv); err != nil {
		return models.Conversation{}, models.Message{}, err
	}
	return conv, conv.MessageMap[msg.ID], nil
}

// retrieve runs the knowledge search for a knowledge-augmented bot and maps
// results to related documents keyed by the reply's id.
func (o *Orchestrator) retrieve(ctx context.Context, bot models.Bot, query, assistantID string) (*retrieval.GroundingBlock, []models.RelatedDocument, error) {
	cfg := retrieval.Config{
		SearchType:  bot.KnowledgeBase.SearchType,
		MaxResults:  bot.KnowledgeBase.MaxResults,
		IndexID:     bot.KnowledgeBase.IndexID,
		WarnDropped: o.warnDropped,
	}
	telemetry.RetrievalCalls.Inc()
	results, err := o.searcher.Search(ctx, query, cfg)
	if err != nil {
		telemetry.TurnsFailed.Inc()
		logger.Error("retrieval_failed", zap.String("bot", bot.ID), zap.Error(err))
		return nil, nil, err
	}
	return retrieval.ToGroundingBlock(results), citation.Map(results, assistantID), nil
}

// persistReply links the assistant message under the user message and writes
// the turn's related documents, all under the conversation lock.
func (o *Orchestrator) persistReply(userID, convID, parentID string, reply models.Message, docs []models.RelatedDocument) (models.Conversation, error) {
	unlock := store.LockConversation(convID)
	defer unlock()

	conv, err := store.GetConversation(userID, convID)
	if err != nil {
		return models.Conversation{}, err
	}
	if _, err := tree.Insert(conv.MessageMap, parentID, reply); err != nil {
		return models.Conversation{}, err
	}
	if reply.Model != "" {
		conv.Model = reply.Model
	}
	if err := store.SaveConversation(conv); err != nil {
		return models.Conversation{}, err
	}
	if len(docs) > 0 {
		if err := store.SaveRelatedDocuments(convID, docs); err != nil {
			return models.Conversation{}, err
		}
	}
	return conv, nil
}

// titleFromText derives an initial conversation title from the first user
// message. The title endpoint can replace it later.
func titleFromText(text string) string {
	t := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	if t == "" {
		return "New conversation"
	}
	runes := []rune(t)
	if len(runes) > 50 {
		return string(runes[:50])
	}
	return t
}
