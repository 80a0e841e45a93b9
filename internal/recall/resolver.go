package recall

import (
	"context"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"

	"github.com/coopco/recallbot/internal/ctxtree"
)

// keyCandidates models the many aliases a reply/quote/original-message
// reference might carry across adapters. Order is only a tie-break when
// several keys exist on the same node; correctness requires trying all of
// them.
var keyCandidates = []string{
	"target_message_id", "message_id", "platform_message_id", "id", "napcat_message_id",
	"reply", "reply_id", "reply_to", "reply_message_id", "replied_message_id",
	"quote", "quote_id", "quoted", "quoted_id", "quoted_message_id",
	"source", "source_id", "source_message_id",
	"message_ref_id", "reference_message_id", "refer_message_id",
	"seq", "msgSeq", "msg_id", "msgId", "origin_message_id",
}

// idKeys is the narrower set used when probing history records.
var idKeys = []string{"message_id", "platform_message_id", "id", "napcat_message_id", "msg_id", "msgId"}

// Resolver recovers a validated message identifier from an invocation,
// trying local context sources in priority order and falling back to a
// live history query on the reference platform.
type Resolver struct {
	history        History
	fallbackWindow time.Duration
}

func NewResolver(history History) *Resolver {
	return &Resolver{history: history, fallbackWindow: time.Minute}
}

// Resolve returns the first validator-passing identifier found. An invalid
// candidate at any step means the search moves on rather than failing.
func (r *Resolver) Resolve(ctx context.Context, inv *Invocation) (string, bool) {
	// 1) the primary message object's own identifier
	if IsValidMessageID(inv.MessageID) {
		slog.Debug("resolved from message_id field", "invocation", inv.ID, "message_id", inv.MessageID)
		return inv.MessageID, true
	}

	// 2) trigger parameters
	for _, k := range keyCandidates {
		if v, ok := inv.ActionData[k]; ok && IsValidMessageID(v) {
			slog.Debug("resolved from action data", "invocation", inv.ID, "key", k)
			return messageIDString(v), true
		}
	}

	// 3) the message object's own keys, mapping or attribute form
	msgNode := ctxtree.FromValue(inv.ActionMessage)
	for _, k := range keyCandidates {
		if c, ok := msgNode.Lookup(k); ok && IsValidMessageID(c.Value()) {
			slog.Debug("resolved from message object", "invocation", inv.ID, "key", k)
			return messageIDString(c.Value()), true
		}
	}

	// 4) bounded deep scans, nearest context first
	roots := []struct {
		name string
		node *ctxtree.Node
	}{
		{"action_message", msgNode},
		{"chat_stream", ctxtree.FromValue(inv.ChatStream)},
		{"message", ctxtree.FromValue(inv.MessageWrapper)},
	}
	for _, root := range roots {
		path, v, found := ctxtree.FindFirst(root.node, keyCandidates, ctxtree.DefaultMaxDepth)
		if !found {
			continue
		}
		// One hit per root; an invalid one (composite, non-numeric) means
		// this root is done and the next source is tried, never a rescan.
		if !IsValidMessageID(v) {
			slog.Debug("deep scan hit failed validation", "invocation", inv.ID, "root", root.name, "path", path)
			continue
		}
		slog.Debug("resolved from deep scan", "invocation", inv.ID, "root", root.name, "path", path)
		return messageIDString(v), true
	}

	// 5) live fallback: the latest non-bot message in this conversation
	if inv.Platform == PlatformQQ && inv.ChatID != "" && r.history != nil {
		if mid, ok := r.queryLatest(ctx, inv.ChatID); ok {
			slog.Debug("resolved from history query", "invocation", inv.ID, "message_id", mid)
			return mid, true
		}
	}

	return "", false
}

func (r *Resolver) queryLatest(ctx context.Context, chatID string) (string, bool) {
	msgs, err := r.history.RecentMessages(ctx, chatID, r.fallbackWindow, 1, true)
	if err != nil {
		slog.Warn("history query failed", "chat", chatID, "err", err)
		return "", false
	}
	if len(msgs) == 0 {
		slog.Warn("history query found no messages", "chat", chatID)
		return "", false
	}
	rec := gjson.ParseBytes(msgs[0])
	for _, k := range idKeys {
		if v := rec.Get(k); v.Exists() && IsValidMessageID(v.String()) {
			return v.String(), true
		}
	}
	slog.Warn("history record carries no usable message_id", "chat", chatID)
	return "", false
}
