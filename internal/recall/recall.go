// Package recall implements message-recall moderation: resolving a target
// message identifier out of loosely structured invocation context, driving
// a deletion attempt through candidate backend commands, verifying after
// the fact that the message is gone, and de-duplicating repeat requests.
package recall

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/coopco/recallbot/internal/bus"
)

// PlatformQQ is the reference platform. Its identifiers are all-digit
// strings and it is the only platform the live history fallback applies to.
const PlatformQQ = "qq"

// VerdictAffirmative is the judgement token that authorizes a recall on the
// automatic path. Any other token, including an absent one, means no action.
const VerdictAffirmative = "yes"

// Backend issues named commands against the chat platform. Response shapes
// are heterogeneous (bare booleans or structured envelopes); callers
// interpret them.
type Backend interface {
	SendCommand(ctx context.Context, name string, payload map[string]any, display string, persist bool) (json.RawMessage, error)
}

// History is a read-only view of recent conversation messages.
type History interface {
	RecentMessages(ctx context.Context, chatID string, window time.Duration, limit int, excludeSelf bool) ([]json.RawMessage, error)
}

// Invocation is one moderation request flowing through the coordinator.
// The context fields are inspected, never owned: the host hands over
// whatever shape it has and the resolver makes sense of it.
type Invocation struct {
	ID       string
	Platform string
	ChatID   string
	SenderID string
	IsGroup  bool

	MessageID      string         // direct identifier of the primary message, if known
	ActionData     map[string]any // structured trigger parameters
	ActionMessage  any            // the message object handed over by the host
	ChatStream     any            // conversation sub-object, if any
	MessageWrapper any            // generic message wrapper, if any
}

// ConversationKey returns "platform:chatID", the whitelist entry form.
func (inv *Invocation) ConversationKey() string {
	return inv.Platform + ":" + inv.ChatID
}

// DirectID returns an identifier available without any resolution work:
// the primary message's own ID field, when it validates. Used by the cache
// gate, which runs before the permission gate and must not resolve.
func (inv *Invocation) DirectID() string {
	if IsValidMessageID(inv.MessageID) {
		return inv.MessageID
	}
	return ""
}

// InvocationFromEvent builds an Invocation from an inbound bus event. The
// raw platform payload becomes the scannable message object, and event
// metadata doubles as trigger parameters.
func InvocationFromEvent(ev bus.InboundEvent) *Invocation {
	inv := &Invocation{
		ID:        uuid.NewString(),
		Platform:  ev.Platform,
		ChatID:    ev.ChatID,
		SenderID:  ev.SenderID,
		IsGroup:   ev.IsGroup,
		MessageID: ev.MessageID,
	}
	if len(ev.Raw) > 0 {
		inv.ActionMessage = json.RawMessage(ev.Raw)
	}
	if len(ev.Metadata) > 0 {
		inv.ActionData = make(map[string]any, len(ev.Metadata))
		for k, v := range ev.Metadata {
			inv.ActionData[k] = v
		}
	}
	return inv
}
