package recall

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

// DeleteCommands are the backend command names tried in order. Different
// backend builds expose the removal action under different names.
var DeleteCommands = []string{"DELETE_MSG", "delete_msg", "RECALL_MSG", "recall_msg"}

// AttemptResult reports one pass through the deletion fallback chain.
type AttemptResult struct {
	Success bool
	Command string          // command that succeeded, or the last one tried
	Raw     json.RawMessage // response of the successful attempt
	Note    string          // best-effort diagnostic on failure
}

// Gateway drives a deletion attempt through the candidate backend commands.
type Gateway struct {
	backend  Backend
	commands []string
}

func NewGateway(backend Backend) *Gateway {
	return &Gateway{backend: backend, commands: DeleteCommands}
}

// AttemptDelete asks the backend to remove mid, trying each candidate
// command until one succeeds. A transport fault on one candidate is logged
// and the next is tried; only exhaustion of the whole list is a failure.
func (g *Gateway) AttemptDelete(ctx context.Context, mid, display string) AttemptResult {
	note := ""
	for _, cmd := range g.commands {
		raw, err := g.backend.SendCommand(ctx, cmd, map[string]any{"message_id": mid}, display, false)
		if err != nil {
			slog.Error("delete command failed", "command", cmd, "message_id", mid, "err", err)
			continue
		}
		res := gjson.ParseBytes(raw)
		if responseOK(res) {
			return AttemptResult{Success: true, Command: cmd, Raw: raw, Note: note}
		}
		if n := classifyFailure(res); n != "" {
			note = n
		}
	}
	if note == "" {
		note = "deletion failed"
	}
	return AttemptResult{Success: false, Command: g.commands[len(g.commands)-1], Note: note}
}

// responseOK interprets a heterogeneous backend response: a bare boolean at
// face value; a structured response succeeds on a status of ok/success or a
// zero-valued return code.
func responseOK(res gjson.Result) bool {
	switch res.Type {
	case gjson.True:
		return true
	case gjson.False:
		return false
	}
	if !res.IsObject() {
		return false
	}
	switch strings.ToLower(res.Get("status").String()) {
	case "ok", "success":
		return true
	}
	if rc := res.Get("retcode"); rc.Exists() && rc.Int() == 0 {
		return true
	}
	if rc := res.Get("code"); rc.Exists() && rc.Int() == 0 {
		return true
	}
	return false
}

// classifyFailure inspects free-text failure messages for familiar causes.
// A narrow, advisory heuristic; it is allowed to be wrong.
func classifyFailure(res gjson.Result) string {
	msg := res.Get("msg").String()
	if msg == "" {
		msg = res.Get("message").String()
	}
	msg = strings.ToLower(msg)
	switch {
	case msg == "":
		return ""
	case strings.Contains(msg, "permission") || strings.Contains(msg, "admin"):
		return "bot may lack permission to recall this message"
	case strings.Contains(msg, "time") || strings.Contains(msg, "expired"):
		return "message may be outside the recall window"
	}
	return ""
}
