package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Load loads config from the default path (~/.recallbot/config.json).
// A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	path := filepath.Join(home, ".recallbot", "config.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Env overrides still apply without a config file.
		return LoadFromReader(bytes.NewReader([]byte("{}")))
	}
	return LoadFromFile(path)
}

// LoadFromFile loads config from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader loads config from an io.Reader, applying env overrides to
// the raw document before decoding so that dotted-key lookups and the typed
// schema see the same merged view.
func LoadFromReader(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("failed to parse config: not valid JSON")
	}

	raw, err = applyEnvOverrides(raw)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.raw = raw
	return cfg, nil
}

// envPaths maps RECALLBOT_-prefixed environment variables onto document paths.
var envPaths = map[string]string{
	"RECALLBOT_PLATFORM_BASE_URL":        "platform.base_url",
	"RECALLBOT_PLATFORM_TOKEN":           "platform.token",
	"RECALLBOT_PLATFORM_SELF_ID":         "platform.self_id",
	"RECALLBOT_PLATFORM_WEBHOOK_PORT":    "platform.webhook_port",
	"RECALLBOT_LOGGING_LEVEL":            "logging.level",
	"RECALLBOT_BEHAVIOR_RECALL_DELAY_MS": "behavior.recall_delay_ms",
	"RECALLBOT_VERIFY_ENABLED":           "verify.enabled",
}

// applyEnvOverrides writes environment values into the raw document,
// coercing integers and booleans so typed decoding still works.
func applyEnvOverrides(raw []byte) ([]byte, error) {
	for env, path := range envPaths {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		var err error
		if n, convErr := strconv.Atoi(val); convErr == nil {
			raw, err = sjson.SetBytes(raw, path, n)
		} else if b, convErr := strconv.ParseBool(val); convErr == nil {
			raw, err = sjson.SetBytes(raw, path, b)
		} else {
			raw, err = sjson.SetBytes(raw, path, val)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to apply env override %s: %w", env, err)
		}
	}
	return raw, nil
}

// GetString looks up a dotted key in the merged document, returning def
// when the key is absent.
func (c *Config) GetString(path, def string) string {
	if res := gjson.GetBytes(c.raw, path); res.Exists() {
		return res.String()
	}
	return def
}

// GetInt looks up a dotted key as an integer.
func (c *Config) GetInt(path string, def int) int {
	if res := gjson.GetBytes(c.raw, path); res.Exists() {
		return int(res.Int())
	}
	return def
}

// GetBool looks up a dotted key as a boolean.
func (c *Config) GetBool(path string, def bool) bool {
	if res := gjson.GetBytes(c.raw, path); res.Exists() {
		return res.Bool()
	}
	return def
}

// GetStrings looks up a dotted key as a list of strings.
func (c *Config) GetStrings(path string, def []string) []string {
	res := gjson.GetBytes(c.raw, path)
	if !res.Exists() || !res.IsArray() {
		return def
	}
	var out []string
	res.ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.String())
		return true
	})
	return out
}
