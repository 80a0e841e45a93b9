package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/coopco/recallbot/internal/bus"
	"github.com/coopco/recallbot/internal/config"
)

// OneBot implements Adapter for a OneBot-v11-style backend: an HTTP webhook
// receiving message events and an action API for everything outgoing.
type OneBot struct {
	name         string
	client       *Client
	bus          *bus.MessageBus
	allowedUsers map[string]bool
	server       *http.Server
}

func NewOneBot(cfg config.PlatformConfig, msgBus *bus.MessageBus) *OneBot {
	name := cfg.Name
	if name == "" {
		name = "qq"
	}
	port := cfg.WebhookPort
	if port == 0 {
		port = 9003
	}
	allowed := make(map[string]bool, len(cfg.AllowedUsers))
	for _, u := range cfg.AllowedUsers {
		allowed[u] = true
	}
	return &OneBot{
		name:         name,
		client:       NewClient(cfg.BaseURL, cfg.Token, cfg.SelfID),
		bus:          msgBus,
		allowedUsers: allowed,
		server:       &http.Server{Addr: fmt.Sprintf(":%d", port)},
	}
}

// Client exposes the action API client, which also serves as the recall
// pipeline's backend and history source.
func (a *OneBot) Client() *Client { return a.client }

func (a *OneBot) Name() string { return a.name }

func (a *OneBot) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", a.handleEvent)
	a.server.Handler = mux

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("onebot: server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		a.Stop()
	}()

	return nil
}

func (a *OneBot) handleEvent(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	event := gjson.ParseBytes(data)
	if event.Get("post_type").String() != "message" {
		w.WriteHeader(http.StatusOK)
		return
	}

	senderID := senderOf(event)
	if !a.IsAllowed(senderID) {
		slog.Warn("onebot: message from disallowed user", "user", senderID)
		w.WriteHeader(http.StatusOK)
		return
	}

	isGroup := event.Get("message_type").String() == "group"
	chatID := event.Get("user_id").String()
	if isGroup {
		chatID = event.Get("group_id").String()
	}

	content := event.Get("raw_message").String()
	if content == "" {
		content = event.Get("message").String()
	}

	ev := bus.InboundEvent{
		Platform:  a.name,
		SenderID:  senderID,
		ChatID:    chatID,
		MessageID: event.Get("message_id").String(),
		Content:   content,
		IsGroup:   isGroup,
		Raw:       json.RawMessage(data),
	}
	// An upstream classifier may annotate the event with its verdict.
	if v := event.Get("verdict"); v.Exists() {
		ev.Metadata = map[string]string{"verdict": v.String()}
	}

	a.bus.PublishInbound(ev)
	w.WriteHeader(http.StatusOK)
}

func (a *OneBot) Stop() error {
	return a.server.Shutdown(context.Background())
}

// Send delivers a notice to the chat it concerns. Notices are group-scoped:
// moderation only acts on group conversations.
func (a *OneBot) Send(n bus.OutboundNotice) error {
	_, err := a.client.Do(context.Background(), "send_group_msg", map[string]any{
		"group_id": numericOr(n.ChatID),
		"message":  n.Content,
	})
	if err != nil {
		return fmt.Errorf("onebot: send notice: %w", err)
	}
	return nil
}

func (a *OneBot) IsAllowed(senderID string) bool {
	if len(a.allowedUsers) == 0 {
		return true
	}
	return a.allowedUsers[senderID]
}
