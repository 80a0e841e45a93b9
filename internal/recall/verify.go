package recall

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"
)

// VerifyReason explains a verification outcome.
type VerifyReason string

const (
	VerifySkipped     VerifyReason = "skipped"
	VerifySkipNoChat  VerifyReason = "skip_no_chat_id"
	VerifyNotFound    VerifyReason = "not_found_after_delete"
	VerifyStillExists VerifyReason = "still_exists"
	VerifyError       VerifyReason = "verify_error"
)

// VerifyResult reports a post-deletion verification outcome. Verification
// is advisory: only still_exists counts as unconfirmed, and even that is a
// soft failure surfaced as a warning.
type VerifyResult struct {
	Confirmed bool
	Reason    VerifyReason
}

const (
	verifyWindow   = time.Hour
	verifyLimit    = 200
	verifyRetryGap = 200 * time.Millisecond
)

// Probe checks, after a deletion attempt, that the target no longer appears
// in recent history. Confirmed removals are recorded into the recall cache.
type Probe struct {
	history  History
	cache    *RecentCache
	retryGap time.Duration
}

func NewProbe(history History, cache *RecentCache) *Probe {
	return &Probe{history: history, cache: cache, retryGap: verifyRetryGap}
}

// Verify waits delay, then polls recent history up to attempts times for
// mid. Disabled or unscoped invocations skip immediately; fetch errors and
// cancellation are swallowed as verify_error since the probe is best-effort.
func (p *Probe) Verify(ctx context.Context, mid, chatID string, enabled bool, delay time.Duration, attempts int) VerifyResult {
	if !enabled {
		return VerifyResult{Confirmed: true, Reason: VerifySkipped}
	}
	if chatID == "" {
		slog.Info("no chat scope, skipping verification", "message_id", mid)
		return VerifyResult{Confirmed: true, Reason: VerifySkipNoChat}
	}

	if !sleep(ctx, delay) {
		return VerifyResult{Confirmed: true, Reason: VerifyError}
	}
	for n := 0; n < attempts; n++ {
		msgs, err := p.history.RecentMessages(ctx, chatID, verifyWindow, verifyLimit, true)
		if err != nil {
			slog.Warn("verification fetch failed", "message_id", mid, "err", err)
			return VerifyResult{Confirmed: true, Reason: VerifyError}
		}
		if !containsMessageID(msgs, mid) {
			slog.Debug("verified: message no longer present", "message_id", mid)
			p.cache.Record(mid)
			return VerifyResult{Confirmed: true, Reason: VerifyNotFound}
		}
		if !sleep(ctx, p.retryGap) {
			return VerifyResult{Confirmed: true, Reason: VerifyError}
		}
	}
	slog.Warn("verification failed: message still present", "message_id", mid)
	return VerifyResult{Confirmed: false, Reason: VerifyStillExists}
}

func containsMessageID(records []json.RawMessage, mid string) bool {
	for _, raw := range records {
		rec := gjson.ParseBytes(raw)
		for _, k := range idKeys {
			if v := rec.Get(k); v.Exists() && v.String() == mid {
				return true
			}
		}
	}
	return false
}

// sleep waits for d or until ctx is cancelled, reporting whether the full
// wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
