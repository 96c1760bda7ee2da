// Package store persists conversations, related documents and bot
// configuration in a Pebble database. Keys are namespaced:
//
//	user:<user_id>:conv:<conversation_id>        conversation record (meta + message map)
//	conv:<conversation_id>:reldoc:<ts>-<seq>     related document
//	bot:<bot_id>                                 bot configuration
//
// All values are JSON. Reads never distinguish "absent" from "owned by
// someone else": both surface ErrNotFound.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/logger"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/models"
)

// ErrNotFound reports an absent (or not owned) record.
var ErrNotFound = errors.New("not found")

var db *pebble.DB

// seq disambiguates related-document keys sharing a nanosecond timestamp.
var seq uint64

// Open opens (or creates) the Pebble database at the given path and keeps a
// package-level handle.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", zap.String("path", path))
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

// Close closes the opened database if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened.
func Ready() bool {
	return db != nil
}

func convKey(userID, convID string) []byte {
	return []byte(fmt.Sprintf("user:%s:conv:%s", userID, convID))
}

// SaveConversation writes the full conversation record. Callers mutating the
// message map must hold the conversation lock (see locks.go) so concurrent
// turns cannot interleave inserts.
func SaveConversation(c models.Conversation) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	key := convKey(c.UserID, c.ID)
	if err := db.Set(key, data, pebble.Sync); err != nil {
		logger.Error("save_conversation_failed", zap.String("conversation", c.ID), zap.Error(err))
		return err
	}
	logger.Debug("conversation_saved", zap.String("conversation", c.ID), zap.Int("messages", len(c.MessageMap)))
	return nil
}

// GetConversation returns the conversation owned by userID, or ErrNotFound.
func GetConversation(userID, convID string) (models.Conversation, error) {
	var c models.Conversation
	if db == nil {
		return c, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get(convKey(userID, convID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return c, fmt.Errorf("conversation %s: %w", convID, ErrNotFound)
		}
		return c, err
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &c); err != nil {
		return c, fmt.Errorf("invalid stored conversation %s: %w", convID, err)
	}
	return c, nil
}

// ListConversations returns metadata for every conversation owned by userID.
func ListConversations(userID string) ([]models.ConversationMeta, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte(fmt.Sprintf("user:%s:conv:", userID))
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.ConversationMeta
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var c models.Conversation
		if err := json.Unmarshal(iter.Value(), &c); err != nil {
			return nil, fmt.Errorf("invalid stored conversation at %s: %w", iter.Key(), err)
		}
		out = append(out, c.Meta())
	}
	return out, iter.Error()
}

// DeleteConversation removes the conversation record and all of its related
// documents. Missing conversations surface ErrNotFound.
func DeleteConversation(userID, convID string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	key := convKey(userID, convID)
	if _, closer, err := db.Get(key); err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return fmt.Errorf("conversation %s: %w", convID, ErrNotFound)
		}
		return err
	} else {
		closer.Close()
	}
	if err := db.Delete(key, pebble.Sync); err != nil {
		logger.Error("delete_conversation_failed", zap.String("conversation", convID), zap.Error(err))
		return err
	}
	if err := deletePrefix(fmt.Sprintf("conv:%s:", convID)); err != nil {
		return err
	}
	logger.Info("conversation_deleted", zap.String("conversation", convID), zap.String("user", userID))
	return nil
}

// DeleteConversationsByUser removes every conversation owned by userID along
// with their related documents.
func DeleteConversationsByUser(userID string) error {
	metas, err := ListConversations(userID)
	if err != nil {
		return err
	}
	for _, m := range metas {
		if err := DeleteConversation(userID, m.ID); err != nil {
			return err
		}
	}
	logger.Info("conversations_deleted", zap.String("user", userID), zap.Int("count", len(metas)))
	return nil
}

func deletePrefix(prefix string) error {
	pfx := []byte(prefix)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()
	var keys [][]byte
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		keys = append(keys, append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return err
	}
	for _, k := range keys {
		if err := db.Delete(k, pebble.Sync); err != nil {
			return err
		}
	}
	return nil
}

// SaveRelatedDocuments appends the documents produced by one retrieval call
// under the owning conversation, preserving their order.
func SaveRelatedDocuments(convID string, docs []models.RelatedDocument) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	ts := time.Now().UTC().UnixNano()
	for _, d := range docs {
		s := atomic.AddUint64(&seq, 1)
		key := fmt.Sprintf("conv:%s:reldoc:%020d-%06d", convID, ts, s)
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to marshal related document: %w", err)
		}
		if err := db.Set([]byte(key), data, pebble.Sync); err != nil {
			logger.Error("save_related_document_failed", zap.String("conversation", convID), zap.String("source_id", d.SourceID), zap.Error(err))
			return err
		}
	}
	logger.Debug("related_documents_saved", zap.String("conversation", convID), zap.Int("count", len(docs)))
	return nil
}

// ListRelatedDocuments returns the conversation's related documents in
// insertion order.
func ListRelatedDocuments(convID string) ([]models.RelatedDocument, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte(fmt.Sprintf("conv:%s:reldoc:", convID))
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.RelatedDocument
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var d models.RelatedDocument
		if err := json.Unmarshal(iter.Value(), &d); err != nil {
			return nil, fmt.Errorf("invalid stored related document at %s: %w", iter.Key(), err)
		}
		out = append(out, d)
	}
	return out, iter.Error()
}

// GetRelatedDocument returns the document with the given source id, or
// ErrNotFound.
func GetRelatedDocument(convID, sourceID string) (models.RelatedDocument, error) {
	docs, err := ListRelatedDocuments(convID)
	if err != nil {
		return models.RelatedDocument{}, err
	}
	for _, d := range docs {
		if d.SourceID == sourceID {
			return d, nil
		}
	}
	return models.RelatedDocument{}, fmt.Errorf("related document %s: %w", sourceID, ErrNotFound)
}

// SaveBot stores a bot configuration record.
func SaveBot(b models.Bot) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal bot: %w", err)
	}
	if err := db.Set([]byte("bot:"+b.ID), data, pebble.Sync); err != nil {
		logger.Error("save_bot_failed", zap.String("bot", b.ID), zap.Error(err))
		return err
	}
	return nil
}

// GetBot returns the bot configuration, or ErrNotFound.
func GetBot(botID string) (models.Bot, error) {
	var b models.Bot
	if db == nil {
		return b, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get([]byte("bot:" + botID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return b, fmt.Errorf("bot %s: %w", botID, ErrNotFound)
		}
		return b, err
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &b); err != nil {
		return b, fmt.Errorf("invalid stored bot %s: %w", botID, err)
	}
	return b, nil
}
