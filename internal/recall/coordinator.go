package recall

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"time"

	"github.com/coopco/recallbot/internal/bus"
	"github.com/coopco/recallbot/internal/config"
)

// Coordinator drives one recall invocation end to end: dedup cache gate,
// permission gate, identifier resolution and validation, judgement gate,
// and dispatch of the deletion with optional delay and post-hoc
// verification. All per-process state (cache, deferred tasks) lives here;
// there are no ambient globals.
type Coordinator struct {
	cfg      *config.Config
	bus      *bus.MessageBus
	resolver *Resolver
	gateway  *Gateway
	probe    *Probe
	cache    *RecentCache
	tasks    *TaskGroup
}

// CoordinatorConfig holds the coordinator's dependencies and settings.
type CoordinatorConfig struct {
	Config   *config.Config
	Bus      *bus.MessageBus
	Backend  Backend
	History  History
	CacheTTL time.Duration // 0 = DefaultRecallTTL
}

func NewCoordinator(cc CoordinatorConfig) *Coordinator {
	cache := NewRecentCache(cc.CacheTTL)
	return &Coordinator{
		cfg:      cc.Config,
		bus:      cc.Bus,
		resolver: NewResolver(cc.History),
		gateway:  NewGateway(cc.Backend),
		probe:    NewProbe(cc.History, cache),
		cache:    cache,
		tasks:    NewTaskGroup(context.Background()),
	}
}

// Shutdown cancels pending deferred recalls and waits for them to drain.
func (c *Coordinator) Shutdown() {
	c.tasks.Shutdown()
}

// PendingTasks reports how many deferred recalls are still in flight.
func (c *Coordinator) PendingTasks() int {
	return c.tasks.InFlight()
}

// ExecuteAction is the judgement-triggered entry point. verdict is the
// externally computed judgement token; only the exact affirmative token
// leads to a deletion, anything else is a non-error "no action needed".
func (c *Coordinator) ExecuteAction(ctx context.Context, inv *Invocation, verdict string) (bool, string) {
	slog.Info("recall action", "invocation", inv.ID, "conversation", inv.ConversationKey())

	// A hit on a resolution-free identifier short-circuits everything,
	// including the permission gate.
	if mid := inv.DirectID(); mid != "" && c.cache.Recent(mid) {
		slog.Info("message recently recalled, skipping", "invocation", inv.ID, "message_id", mid)
		return true, fmt.Sprintf("message %s already recalled, skipping", mid)
	}

	if ok, reason := c.checkGroupPermission(inv, true); !ok {
		c.notify(inv, "❌ "+reason)
		return false, reason
	}

	mid, outcome, ok := c.resolveTarget(ctx, inv, "")
	if !ok {
		return false, outcome
	}
	if c.cache.Recent(mid) {
		slog.Info("message recently recalled, skipping", "invocation", inv.ID, "message_id", mid)
		return true, fmt.Sprintf("message %s already recalled, skipping", mid)
	}

	slog.Debug("judgement verdict", "invocation", inv.ID, "verdict", verdict)
	if verdict != VerdictAffirmative {
		slog.Info("judgement declined recall", "invocation", inv.ID)
		return true, "judgement verdict negative, no recall needed"
	}

	return c.dispatch(ctx, inv, mid)
}

// ExecuteCommand is the manual entry point behind the /recall command.
// explicitID is the optional identifier argument captured from the command
// text. The triggering message is always consumed.
func (c *Coordinator) ExecuteCommand(ctx context.Context, inv *Invocation, explicitID string) (ok bool, outcome string, consumed bool) {
	slog.Info("recall command", "invocation", inv.ID, "conversation", inv.ConversationKey())

	quick := explicitID
	if !IsValidMessageID(quick) {
		quick = inv.DirectID()
	}
	if quick != "" && c.cache.Recent(quick) {
		slog.Info("message recently recalled, skipping", "invocation", inv.ID, "message_id", quick)
		return true, fmt.Sprintf("message %s already recalled, skipping", quick), true
	}

	if permOK, reason := c.checkGroupPermission(inv, false); !permOK {
		c.notify(inv, "❌ "+reason)
		return false, reason, true
	}

	mid, outcome, resolved := c.resolveTarget(ctx, inv, explicitID)
	if !resolved {
		return false, outcome, true
	}
	if c.cache.Recent(mid) {
		return true, fmt.Sprintf("message %s already recalled, skipping", mid), true
	}

	ok, outcome = c.dispatch(ctx, inv, mid)
	return ok, outcome, true
}

// resolveTarget produces a validated target identifier, preferring an
// explicit argument over context resolution. Failures notify the user with
// a templated error and a terminal outcome.
func (c *Coordinator) resolveTarget(ctx context.Context, inv *Invocation, explicitID string) (string, string, bool) {
	mid := explicitID
	if mid == "" {
		var ok bool
		mid, ok = c.resolver.Resolve(ctx, inv)
		if !ok {
			slog.Warn("no target message found", "invocation", inv.ID)
			c.notify(inv, "❌ "+c.randomErrorMessage())
			return "", "no recallable target message found", false
		}
	}

	if inv.Platform == PlatformQQ && !IsValidMessageID(mid) {
		slog.Error("invalid message_id", "invocation", inv.ID, "message_id", mid)
		c.notify(inv, "❌ "+c.randomErrorMessage())
		return "", fmt.Sprintf("invalid message_id %q (must be all digits)", mid), false
	}

	slog.Debug("target resolved", "invocation", inv.ID, "message_id", mid)
	return mid, "", true
}

// checkGroupPermission applies the conversation whitelist; an empty
// whitelist allows every conversation. The automatic trigger additionally
// requires group scope.
func (c *Coordinator) checkGroupPermission(inv *Invocation, requireGroup bool) (bool, string) {
	if requireGroup && !inv.IsGroup {
		return false, "recall can only be used in group chats"
	}

	allowed := c.cfg.GetStrings("permissions.allowed_groups", nil)
	if len(allowed) == 0 {
		slog.Debug("group whitelist not configured, allowing all", "invocation", inv.ID)
		return true, ""
	}

	key := inv.ConversationKey()
	if slices.Contains(allowed, key) {
		return true, ""
	}
	slog.Warn("conversation lacks recall permission", "invocation", inv.ID, "conversation", key)
	return false, "this conversation does not have recall permission"
}

// dispatch runs the deletion inline or schedules it after the configured
// delay. A deferred invocation reports "scheduled" immediately; its own
// failure is only surfaced later as a best-effort notice.
func (c *Coordinator) dispatch(ctx context.Context, inv *Invocation, mid string) (bool, string) {
	display := c.cfg.GetString("messages.recall_display", config.DefaultRecallDisplay)
	delay := time.Duration(c.cfg.GetInt("behavior.recall_delay_ms", 0)) * time.Millisecond

	if delay <= 0 {
		res := c.gateway.AttemptDelete(ctx, mid, display)
		ver := c.verify(ctx, inv, mid)
		slog.Debug("verification result", "invocation", inv.ID, "confirmed", ver.Confirmed, "reason", ver.Reason)
		if !res.Success {
			if res.Note != "" {
				c.notify(inv, "❌ recall failed: "+res.Note)
			}
			return false, fmt.Sprintf("recall failed for message %s (%s)", mid, res.Note)
		}
		return true, fmt.Sprintf("recall requested for message %s", mid)
	}

	c.tasks.Go(func(tctx context.Context) {
		if !sleep(tctx, delay) {
			slog.Info("deferred recall cancelled", "invocation", inv.ID, "message_id", mid)
			return
		}
		res := c.gateway.AttemptDelete(tctx, mid, display)
		c.verify(tctx, inv, mid)
		if !res.Success && res.Note != "" {
			c.notify(inv, "❌ recall failed: "+res.Note)
		}
	})
	slog.Info("recall scheduled", "invocation", inv.ID, "message_id", mid, "delay", delay)
	return true, fmt.Sprintf("recall scheduled in %s for message %s", delay, mid)
}

func (c *Coordinator) verify(ctx context.Context, inv *Invocation, mid string) VerifyResult {
	return c.probe.Verify(ctx, mid, inv.ChatID,
		c.cfg.GetBool("verify.enabled", true),
		time.Duration(c.cfg.GetInt("verify.delay_ms", 500))*time.Millisecond,
		c.cfg.GetInt("verify.attempts", 2))
}

// notify sends a best-effort user-visible notice; delivery is fire-and-forget.
func (c *Coordinator) notify(inv *Invocation, text string) {
	if c.bus == nil {
		return
	}
	c.bus.PublishOutbound(bus.OutboundNotice{
		Platform: inv.Platform,
		ChatID:   inv.ChatID,
		Content:  text,
		Type:     "error",
	})
}

func (c *Coordinator) randomErrorMessage() string {
	msgs := c.cfg.GetStrings("messages.error_messages", config.DefaultErrorMessages)
	if len(msgs) == 0 {
		return "recall failed"
	}
	return msgs[rand.Intn(len(msgs))]
}
