package utils

import (
	"time"

	"github.com/google/uuid"
)

// GenConversationID returns a new conversation id.
func GenConversationID() string {
	return "conv-" + uuid.NewString()
}

// GenMessageID returns a new message id.
func GenMessageID() string {
	return "msg-" + uuid.NewString()
}

// CurrentTimeMillis returns the current time as milliseconds since epoch,
// the timestamp unit used throughout stored records.
func CurrentTimeMillis() int64 {
	return time.Now().UTC().UnixMilli()
}
