package config

import (
	"strings"
	"testing"
)

func TestLoadFromReaderDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.Components.EnableSmartRecall || !cfg.Components.EnableRecallCommand {
		t.Error("component toggles should default to enabled")
	}
	if cfg.Verify.DelayMS != 500 || cfg.Verify.Attempts != 2 {
		t.Errorf("verify defaults = %+v", cfg.Verify)
	}
	if cfg.Behavior.RecallDelayMS != 0 {
		t.Errorf("recall_delay_ms = %d, want 0", cfg.Behavior.RecallDelayMS)
	}
	if len(cfg.Permissions.AllowedGroups) != 0 {
		t.Errorf("allowed_groups should default empty, got %v", cfg.Permissions.AllowedGroups)
	}
	if cfg.Platform.WebhookPort != 9003 {
		t.Errorf("webhook_port = %d, want 9003", cfg.Platform.WebhookPort)
	}
}

func TestLoadFromReaderOverridesDefaults(t *testing.T) {
	doc := `{
		"permissions": {"allowed_groups": ["qq:999"]},
		"verify": {"enabled": false, "delay_ms": 100},
		"behavior": {"recall_delay_ms": 2000}
	}`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cfg.Permissions.AllowedGroups; len(got) != 1 || got[0] != "qq:999" {
		t.Errorf("allowed_groups = %v", got)
	}
	if cfg.Verify.Enabled {
		t.Error("verify.enabled should be false")
	}
	if cfg.Verify.Attempts != 2 {
		t.Errorf("verify.attempts = %d, want default 2 preserved", cfg.Verify.Attempts)
	}
	if cfg.Behavior.RecallDelayMS != 2000 {
		t.Errorf("recall_delay_ms = %d, want 2000", cfg.Behavior.RecallDelayMS)
	}
}

func TestLoadFromReaderInvalidJSON(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader(`{"plugin":`)); err == nil {
		t.Fatal("expected error on invalid JSON")
	}
}

func TestDottedLookups(t *testing.T) {
	doc := `{
		"messages": {"error_messages": ["a", "b"]},
		"verify": {"enabled": true, "delay_ms": 250},
		"behavior": {"recall_delay_ms": 1500}
	}`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cfg.GetInt("behavior.recall_delay_ms", 0); got != 1500 {
		t.Errorf("GetInt = %d, want 1500", got)
	}
	if got := cfg.GetInt("verify.attempts", 2); got != 2 {
		t.Errorf("GetInt default = %d, want 2", got)
	}
	if !cfg.GetBool("verify.enabled", false) {
		t.Error("GetBool(verify.enabled) = false, want true")
	}
	if got := cfg.GetString("messages.recall_display", "fallback"); got != "fallback" {
		t.Errorf("GetString default = %q", got)
	}
	if got := cfg.GetStrings("messages.error_messages", nil); len(got) != 2 || got[0] != "a" {
		t.Errorf("GetStrings = %v", got)
	}
	if got := cfg.GetStrings("permissions.allowed_groups", nil); got != nil {
		t.Errorf("GetStrings absent key = %v, want nil", got)
	}
}

func TestLoadMissingFileAppliesEnvOverrides(t *testing.T) {
	// No config file at all: defaults plus env overrides, same merge as the
	// file path.
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RECALLBOT_PLATFORM_TOKEN", "secret")
	t.Setenv("RECALLBOT_BEHAVIOR_RECALL_DELAY_MS", "750")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Platform.Token != "secret" {
		t.Errorf("platform.token = %q, want env value", cfg.Platform.Token)
	}
	if cfg.Behavior.RecallDelayMS != 750 {
		t.Errorf("recall_delay_ms = %d, want 750", cfg.Behavior.RecallDelayMS)
	}
	if got := cfg.GetInt("behavior.recall_delay_ms", 0); got != 750 {
		t.Errorf("GetInt = %d, want 750", got)
	}
	if cfg.Platform.WebhookPort != 9003 {
		t.Errorf("webhook_port = %d, want default preserved", cfg.Platform.WebhookPort)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RECALLBOT_PLATFORM_TOKEN", "secret")
	t.Setenv("RECALLBOT_BEHAVIOR_RECALL_DELAY_MS", "750")
	t.Setenv("RECALLBOT_VERIFY_ENABLED", "false")

	cfg, err := LoadFromReader(strings.NewReader(`{"verify": {"enabled": true}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Platform.Token != "secret" {
		t.Errorf("platform.token = %q, want env value", cfg.Platform.Token)
	}
	if cfg.Behavior.RecallDelayMS != 750 {
		t.Errorf("recall_delay_ms = %d, want 750", cfg.Behavior.RecallDelayMS)
	}
	if cfg.Verify.Enabled {
		t.Error("env override should win over the document value")
	}
	// dotted lookups see the merged document too
	if got := cfg.GetInt("behavior.recall_delay_ms", 0); got != 750 {
		t.Errorf("GetInt after env override = %d, want 750", got)
	}
}
