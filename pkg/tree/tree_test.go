package tree

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/models"
)

func textMsg(id, parent string) models.Message {
	return models.Message{
		ID:       id,
		Role:     models.RoleUser,
		ParentID: parent,
		Content:  []models.ContentBlock{{Type: models.BlockText, Text: id}},
	}
}

func mustInsert(t *testing.T, mm map[string]models.Message, parentID string, msg models.Message) {
	t.Helper()
	if _, err := Insert(mm, parentID, msg); err != nil {
		t.Fatalf("insert %s under %q: %v", msg.ID, parentID, err)
	}
}

func TestInsertRoot(t *testing.T) {
	mm := map[string]models.Message{}
	mustInsert(t, mm, "", textMsg("root", ""))

	r, ok := Root(mm)
	if !ok {
		t.Fatalf("root not found after insert")
	}
	if r.ID != "root" {
		t.Fatalf("root id = %q, want root", r.ID)
	}

	if _, err := Insert(mm, "", textMsg("second", "")); !errors.Is(err, ErrRootAlreadyExists) {
		t.Fatalf("second root insert: err = %v, want ErrRootAlreadyExists", err)
	}
	if len(mm) != 1 {
		t.Fatalf("map mutated on failed insert: %d entries", len(mm))
	}
}

func TestInsertChildOrder(t *testing.T) {
	mm := map[string]models.Message{}
	mustInsert(t, mm, "", textMsg("root", ""))
	mustInsert(t, mm, "root", textMsg("a", ""))
	mustInsert(t, mm, "root", textMsg("b", ""))
	mustInsert(t, mm, "root", textMsg("c", ""))

	root := mm["root"]
	want := []string{"a", "b", "c"}
	if len(root.Children) != len(want) {
		t.Fatalf("children = %v, want %v", root.Children, want)
	}
	for i, id := range want {
		if root.Children[i] != id {
			t.Fatalf("children[%d] = %q, want %q", i, root.Children[i], id)
		}
	}
}

func TestInsertMissingParent(t *testing.T) {
	mm := map[string]models.Message{}
	mustInsert(t, mm, "", textMsg("root", ""))

	if _, err := Insert(mm, "ghost", textMsg("orphan", "")); !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("err = %v, want ErrParentNotFound", err)
	}
	if _, ok := mm["orphan"]; ok {
		t.Fatalf("orphan written despite failed insert")
	}
}

func TestInsertDuplicateID(t *testing.T) {
	mm := map[string]models.Message{}
	mustInsert(t, mm, "", textMsg("root", ""))
	mustInsert(t, mm, "root", textMsg("a", ""))

	if _, err := Insert(mm, "root", textMsg("a", "")); err == nil {
		t.Fatalf("duplicate id accepted")
	}
	if got := len(mm["root"].Children); got != 1 {
		t.Fatalf("children count = %d after rejected duplicate, want 1", got)
	}
}

// LatestDescendant follows the last child at every level; ChildOf returns
// the first. The two policies must diverge on a branched tree.
func TestBranchPolicies(t *testing.T) {
	mm := map[string]models.Message{}
	mustInsert(t, mm, "", textMsg("root", ""))
	mustInsert(t, mm, "root", textMsg("answer-1", ""))
	mustInsert(t, mm, "root", textMsg("answer-2", ""))
	mustInsert(t, mm, "answer-2", textMsg("followup", ""))

	latest, err := LatestDescendant(mm, "root")
	if err != nil {
		t.Fatalf("latest descendant: %v", err)
	}
	if latest.ID != "followup" {
		t.Fatalf("latest = %q, want followup", latest.ID)
	}

	first, err := ChildOf(mm, "root")
	if err != nil {
		t.Fatalf("child of: %v", err)
	}
	if first == nil || first.ID != "answer-1" {
		t.Fatalf("first child = %v, want answer-1", first)
	}
}

func TestLatestDescendantOfLeaf(t *testing.T) {
	mm := map[string]models.Message{}
	mustInsert(t, mm, "", textMsg("root", ""))

	got, err := LatestDescendant(mm, "root")
	if err != nil {
		t.Fatalf("latest descendant: %v", err)
	}
	if got.ID != "root" {
		t.Fatalf("leaf should resolve to itself, got %q", got.ID)
	}

	if _, err := LatestDescendant(mm, "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestChildOfLeaf(t *testing.T) {
	mm := map[string]models.Message{}
	mustInsert(t, mm, "", textMsg("root", ""))

	child, err := ChildOf(mm, "root")
	if err != nil {
		t.Fatalf("child of leaf: %v", err)
	}
	if child != nil {
		t.Fatalf("leaf child = %v, want nil", child)
	}

	if _, err := ChildOf(mm, "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPathToRoot(t *testing.T) {
	mm := map[string]models.Message{}
	mustInsert(t, mm, "", textMsg("root", ""))
	prev := "root"
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("m%d", i)
		mustInsert(t, mm, prev, textMsg(id, ""))
		prev = id
	}

	path, err := PathToRoot(mm, "m3")
	if err != nil {
		t.Fatalf("path to root: %v", err)
	}
	want := []string{"root", "m0", "m1", "m2", "m3"}
	if len(path) != len(want) {
		t.Fatalf("path length = %d, want %d", len(path), len(want))
	}
	for i, id := range want {
		if path[i].ID != id {
			t.Fatalf("path[%d] = %q, want %q", i, path[i].ID, id)
		}
	}
}

func TestPathToRootBrokenChain(t *testing.T) {
	mm := map[string]models.Message{
		"stray": {ID: "stray", Role: models.RoleUser, ParentID: "gone"},
	}
	if _, err := PathToRoot(mm, "stray"); !errors.Is(err, ErrBrokenChain) {
		t.Fatalf("err = %v, want ErrBrokenChain", err)
	}
}

func TestLatestDescendantCycle(t *testing.T) {
	// two messages pointing at each other as children, as corrupted data
	mm := map[string]models.Message{
		"a": {ID: "a", Role: models.RoleUser, Children: []string{"b"}},
		"b": {ID: "b", Role: models.RoleUser, ParentID: "a", Children: []string{"a"}},
	}
	if _, err := LatestDescendant(mm, "a"); !errors.Is(err, ErrBrokenChain) {
		t.Fatalf("err = %v, want ErrBrokenChain", err)
	}
}

// Random insert sequences must keep the tree consistent: every non-root
// message's parent is present and lists it exactly once, and the latest
// descendant is a leaf whose ancestor chain length equals its depth.
func TestRandomInsertInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		mm := map[string]models.Message{}
		mustInsert(t, mm, "", textMsg("root", ""))
		ids := []string{"root"}
		for i := 0; i < 40; i++ {
			parent := ids[rnd.Intn(len(ids))]
			id := fmt.Sprintf("t%d-m%d", trial, i)
			mustInsert(t, mm, parent, textMsg(id, ""))
			ids = append(ids, id)
		}

		for id, m := range mm {
			if m.ParentID == "" {
				if id != "root" {
					t.Fatalf("trial %d: second root %s", trial, id)
				}
				continue
			}
			parent, ok := mm[m.ParentID]
			if !ok {
				t.Fatalf("trial %d: %s has missing parent %s", trial, id, m.ParentID)
			}
			count := 0
			for _, c := range parent.Children {
				if c == id {
					count++
				}
			}
			if count != 1 {
				t.Fatalf("trial %d: %s appears %d times in parent's children", trial, id, count)
			}
		}

		leaf, err := LatestDescendant(mm, "root")
		if err != nil {
			t.Fatalf("trial %d: latest descendant: %v", trial, err)
		}
		if len(leaf.Children) != 0 {
			t.Fatalf("trial %d: latest descendant %s is not a leaf", trial, leaf.ID)
		}
		path, err := PathToRoot(mm, leaf.ID)
		if err != nil {
			t.Fatalf("trial %d: path to root: %v", trial, err)
		}
		depth := 1
		for cur := leaf; cur.ParentID != ""; cur = mm[cur.ParentID] {
			depth++
		}
		if len(path) != depth {
			t.Fatalf("trial %d: path length %d, depth %d", trial, len(path), depth)
		}
	}
}

// Deep linear chains must resolve without the cycle guard tripping.
func TestDeepChain(t *testing.T) {
	mm := map[string]models.Message{}
	mustInsert(t, mm, "", textMsg("root", ""))
	prev := "root"
	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("n%d", i)
		mustInsert(t, mm, prev, textMsg(id, ""))
		prev = id
	}

	latest, err := LatestDescendant(mm, "root")
	if err != nil {
		t.Fatalf("latest descendant: %v", err)
	}
	if latest.ID != "n199" {
		t.Fatalf("latest = %q, want n199", latest.ID)
	}

	path, err := PathToRoot(mm, "n199")
	if err != nil {
		t.Fatalf("path to root: %v", err)
	}
	if len(path) != 201 {
		t.Fatalf("path length = %d, want 201", len(path))
	}
	if path[0].ID != "root" {
		t.Fatalf("path[0] = %q, want root", path[0].ID)
	}
}
