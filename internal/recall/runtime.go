package recall

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/coopco/recallbot/internal/bus"
	"github.com/coopco/recallbot/internal/config"
)

// CommandPattern matches the manual recall command with an optional
// explicit identifier argument, e.g. "/recall 123456", including the
// localized alias "/撤回".
var CommandPattern = regexp.MustCompile(`^/(?:撤回|recall)(?:\s+(\S+))?$`)

// Runtime consumes inbound events from the bus and routes each to the
// matching coordinator entry point: the manual command when the text
// matches, otherwise the judgement-triggered action when a verdict
// annotation is present.
type Runtime struct {
	bus   *bus.MessageBus
	coord *Coordinator
	cfg   *config.Config
}

func NewRuntime(msgBus *bus.MessageBus, coord *Coordinator, cfg *config.Config) *Runtime {
	return &Runtime{bus: msgBus, coord: coord, cfg: cfg}
}

// Run consumes inbound events and processes each in its own goroutine.
// Returns when ctx is cancelled.
func (r *Runtime) Run(ctx context.Context) error {
	for {
		ev, err := r.bus.ConsumeInbound(ctx)
		if err != nil {
			return err
		}
		go r.handle(ctx, ev)
	}
}

func (r *Runtime) handle(ctx context.Context, ev bus.InboundEvent) {
	content := strings.TrimSpace(ev.Content)

	if r.cfg.GetBool("components.enable_recall_command", true) {
		if m := CommandPattern.FindStringSubmatch(content); m != nil {
			inv := InvocationFromEvent(ev)
			ok, outcome, _ := r.coord.ExecuteCommand(ctx, inv, m[1])
			slog.Info("recall command handled", "invocation", inv.ID, "ok", ok, "outcome", outcome)
			return
		}
	}

	if r.cfg.GetBool("components.enable_smart_recall", true) {
		if verdict, ok := ev.Metadata["verdict"]; ok {
			inv := InvocationFromEvent(ev)
			ok, outcome := r.coord.ExecuteAction(ctx, inv, verdict)
			slog.Info("recall action handled", "invocation", inv.ID, "ok", ok, "outcome", outcome)
		}
	}
}
