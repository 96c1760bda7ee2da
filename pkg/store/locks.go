package store

import "sync"

// Per-conversation mutexes serialize turn insertion. Two concurrent turns
// against the same parent would otherwise both land as "first child" and
// silently reorder the active branch. Retrieval and provider calls run
// outside the lock; only the read-modify-write of the message map holds it.
var convLocks sync.Map // conversation id -> *sync.Mutex

// LockConversation acquires the conversation's mutex and returns the
// corresponding unlock function.
func LockConversation(convID string) func() {
	v, _ := convLocks.LoadOrStore(convID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
