// Package tree implements the branching message tree of a conversation.
//
// Messages live in a conversation's message map; each message names its
// parent and keeps an append-only, creation-ordered list of child ids. The
// map forms a tree with a single root (the one message with an empty parent
// id). All mutation is append-only.
package tree

import (
	"errors"
	"fmt"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/models"
)

var (
	// ErrNotFound reports a message id absent from the map.
	ErrNotFound = errors.New("message not found")
	// ErrParentNotFound reports an insert against a missing parent.
	ErrParentNotFound = errors.New("parent message not found")
	// ErrRootAlreadyExists reports an attempt to insert a second root.
	ErrRootAlreadyExists = errors.New("root message already exists")
	// ErrBrokenChain reports a parent link pointing at a missing message.
	// This indicates stored-data corruption and is surfaced loudly.
	ErrBrokenChain = errors.New("broken ancestor chain")
)

// Root returns the root message of the map, if one exists.
func Root(mm map[string]models.Message) (models.Message, bool) {
	for _, m := range mm {
		if m.ParentID == "" {
			return m, true
		}
	}
	return models.Message{}, false
}

// Insert links msg into the map as a child of parentID, or as the root when
// parentID is empty. The message record and the parent's children entry are
// written together; on any error the map is left untouched.
func Insert(mm map[string]models.Message, parentID string, msg models.Message) (string, error) {
	if msg.ID == "" {
		return "", fmt.Errorf("insert: message id is required")
	}
	if _, ok := mm[msg.ID]; ok {
		return "", fmt.Errorf("insert: duplicate message id %s", msg.ID)
	}
	if parentID == "" {
		if _, ok := Root(mm); ok {
			return "", ErrRootAlreadyExists
		}
		msg.ParentID = ""
		mm[msg.ID] = msg
		return msg.ID, nil
	}
	parent, ok := mm[parentID]
	if !ok {
		return "", fmt.Errorf("insert %s: %w", parentID, ErrParentNotFound)
	}
	msg.ParentID = parentID
	mm[msg.ID] = msg
	parent.Children = append(parent.Children, msg.ID)
	mm[parentID] = parent
	return msg.ID, nil
}

// LatestDescendant resolves the most recently created message reachable from
// id by always following the last entry of each children list. Latest branch
// wins: this is how "the current active turn" is resolved without the client
// tracking ids.
func LatestDescendant(mm map[string]models.Message, id string) (models.Message, error) {
	cur, ok := mm[id]
	if !ok {
		return models.Message{}, fmt.Errorf("latest descendant %s: %w", id, ErrNotFound)
	}
	// the visit bound guards against cycles in corrupted data
	for steps := 0; len(cur.Children) > 0; steps++ {
		if steps > len(mm) {
			return models.Message{}, fmt.Errorf("latest descendant %s: %w", id, ErrBrokenChain)
		}
		next, ok := mm[cur.Children[len(cur.Children)-1]]
		if !ok {
			return models.Message{}, fmt.Errorf("latest descendant %s: %w", id, ErrBrokenChain)
		}
		cur = next
	}
	return cur, nil
}

// ChildOf returns the first-added child of id, or nil when id is a leaf.
// First branch wins: this fetches the original answer to a given question,
// deliberately distinct from LatestDescendant's last-branch policy, which
// follows regenerated/edited turns.
func ChildOf(mm map[string]models.Message, id string) (*models.Message, error) {
	cur, ok := mm[id]
	if !ok {
		return nil, fmt.Errorf("child of %s: %w", id, ErrNotFound)
	}
	if len(cur.Children) == 0 {
		return nil, nil
	}
	child, ok := mm[cur.Children[0]]
	if !ok {
		return nil, fmt.Errorf("child of %s: %w", id, ErrBrokenChain)
	}
	return &child, nil
}

// PathToRoot returns the ancestor chain of id, root first, id last. A parent
// link pointing at a missing message fails the read with ErrBrokenChain.
func PathToRoot(mm map[string]models.Message, id string) ([]models.Message, error) {
	cur, ok := mm[id]
	if !ok {
		return nil, fmt.Errorf("path to root %s: %w", id, ErrNotFound)
	}
	path := []models.Message{cur}
	for steps := 0; cur.ParentID != ""; steps++ {
		if steps > len(mm) {
			return nil, fmt.Errorf("path to root %s: %w", id, ErrBrokenChain)
		}
		parent, ok := mm[cur.ParentID]
		if !ok {
			return nil, fmt.Errorf("path to root %s: parent %s: %w", id, cur.ParentID, ErrBrokenChain)
		}
		path = append(path, parent)
		cur = parent
	}
	// reverse so the root comes first
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}
