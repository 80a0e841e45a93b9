package bus

import (
	"encoding/json"
	"fmt"
)

// InboundEvent is a chat message delivered by a platform adapter for
// moderation. Raw carries the adapter's original event document so the
// recall pipeline can scan it for reply/quote identifiers the typed fields
// do not cover.
type InboundEvent struct {
	Platform  string            // source platform name (e.g. "qq")
	SenderID  string            // sender identifier
	ChatID    string            // chat/conversation identifier
	MessageID string            // platform identifier of this message, if known
	Content   string            // text content
	IsGroup   bool              // true for group/channel scope, false for one-to-one
	Raw       json.RawMessage   // original platform event payload
	Metadata  map[string]string // arbitrary annotations (e.g. a judgement verdict)
}

// ConversationKey returns "platform:chatID", the form used by the
// permission whitelist.
func (e InboundEvent) ConversationKey() string {
	return fmt.Sprintf("%s:%s", e.Platform, e.ChatID)
}

// OutboundNotice is a user-visible message to be sent back to a chat,
// fire-and-forget from the publisher's perspective.
type OutboundNotice struct {
	Platform string // target platform
	ChatID   string // target chat
	Content  string // text content
	Type     string // "text", "error"
}
