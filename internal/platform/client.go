package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Client talks to a OneBot-style HTTP action API. It implements the backend
// and history interfaces the recall pipeline consumes.
type Client struct {
	baseURL string
	token   string
	selfID  string
	httpc   *http.Client
	now     func() time.Time
}

func NewClient(baseURL, token, selfID string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		selfID:  selfID,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
}

// Do issues a backend action and returns the raw response document. The
// response shape is heterogeneous across backends; callers interpret it.
func (c *Client) Do(ctx context.Context, action string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("onebot: marshal %s params: %w", action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+action, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("onebot: build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("onebot: action %s: %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("onebot: read %s response: %w", action, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("onebot: action %s status %d: %s", action, resp.StatusCode, data)
	}
	return json.RawMessage(data), nil
}

// SendCommand issues a named backend command with the given payload. The
// display text is a host-framework annotation with no backend counterpart
// here, so it is logged; persist is likewise accepted and ignored.
func (c *Client) SendCommand(ctx context.Context, name string, payload map[string]any, display string, persist bool) (json.RawMessage, error) {
	slog.Debug("backend command", "action", name, "display", display, "persist", persist)
	return c.Do(ctx, name, payload)
}

// RecentMessages fetches group history for chatID, newest first, filtered
// to the given time window and capped at limit. With excludeSelf set the
// bot's own messages are dropped.
func (c *Client) RecentMessages(ctx context.Context, chatID string, window time.Duration, limit int, excludeSelf bool) ([]json.RawMessage, error) {
	raw, err := c.Do(ctx, "get_group_msg_history", map[string]any{
		"group_id": numericOr(chatID),
		"count":    limit,
	})
	if err != nil {
		return nil, err
	}

	records := gjson.GetBytes(raw, "data.messages")
	if !records.Exists() {
		records = gjson.GetBytes(raw, "data")
	}

	cutoff := c.now().Add(-window).Unix()
	var out []json.RawMessage
	records.ForEach(func(_, m gjson.Result) bool {
		if ts := m.Get("time"); ts.Exists() && ts.Int() < cutoff {
			return true
		}
		if excludeSelf && c.selfID != "" && senderOf(m) == c.selfID {
			return true
		}
		out = append(out, json.RawMessage(m.Raw))
		return true
	})

	// History arrives oldest first; callers want the newest at the front.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func senderOf(m gjson.Result) string {
	if uid := m.Get("sender.user_id"); uid.Exists() {
		return uid.String()
	}
	return m.Get("user_id").String()
}

// numericOr returns chatID as an integer when it parses as one, since most
// backends type group identifiers as numbers.
func numericOr(chatID string) any {
	if n, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return n
	}
	return chatID
}
