package config

// Config is the top-level configuration
type Config struct {
	Plugin      PluginConfig      `json:"plugin"`
	Components  ComponentsConfig  `json:"components"`
	Permissions PermissionsConfig `json:"permissions"`
	Messages    MessagesConfig    `json:"messages"`
	Verify      VerifyConfig      `json:"verify"`
	Behavior    BehaviorConfig    `json:"behavior"`
	Logging     LoggingConfig     `json:"logging"`
	Platform    PlatformConfig    `json:"platform"`
	Bus         BusConfig         `json:"bus"`

	raw []byte // merged document backing dotted-key lookups
}

type PluginConfig struct {
	Enabled bool `json:"enabled"`
}

// ComponentsConfig toggles the two invocation entry points.
type ComponentsConfig struct {
	EnableSmartRecall   bool `json:"enable_smart_recall"`
	EnableRecallCommand bool `json:"enable_recall_command"`
}

// PermissionsConfig holds the conversation whitelist. Entries have the form
// "platform:chatID"; an empty list allows all conversations.
type PermissionsConfig struct {
	AllowedGroups []string `json:"allowed_groups"`
}

type MessagesConfig struct {
	RecallDisplay string   `json:"recall_display"`
	ErrorMessages []string `json:"error_messages"`
}

// VerifyConfig controls the post-deletion verification probe.
type VerifyConfig struct {
	Enabled  bool `json:"enabled"`
	DelayMS  int  `json:"delay_ms"`
	Attempts int  `json:"attempts"`
}

type BehaviorConfig struct {
	RecallDelayMS int `json:"recall_delay_ms"` // 0 = recall immediately
}

type LoggingConfig struct {
	Level string `json:"level"` // debug/info/warn/error
}

// PlatformConfig configures the backend adapter (OneBot-style HTTP API).
type PlatformConfig struct {
	Name         string   `json:"name"`
	BaseURL      string   `json:"base_url"`
	Token        string   `json:"token"`
	WebhookPort  int      `json:"webhook_port"`
	SelfID       string   `json:"self_id"`
	AllowedUsers []string `json:"allowed_users"`
}

type BusConfig struct {
	BufferSize int `json:"buffer_size"`
}

// DefaultErrorMessages are used when messages.error_messages is not set.
var DefaultErrorMessages = []string{
	"target message not found, reply to it or provide a message_id",
	"invalid message_id, check the format",
	"recall failed, please try again later",
}

// DefaultRecallDisplay is the platform-visible annotation on a recall.
const DefaultRecallDisplay = "🗑️ recalling a message (severe violation)"

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Plugin: PluginConfig{Enabled: true},
		Components: ComponentsConfig{
			EnableSmartRecall:   true,
			EnableRecallCommand: true,
		},
		Messages: MessagesConfig{
			RecallDisplay: DefaultRecallDisplay,
			ErrorMessages: DefaultErrorMessages,
		},
		Verify: VerifyConfig{
			Enabled:  true,
			DelayMS:  500,
			Attempts: 2,
		},
		Logging: LoggingConfig{Level: "info"},
		Platform: PlatformConfig{
			Name:        "qq",
			BaseURL:     "http://127.0.0.1:3000",
			WebhookPort: 9003,
		},
		Bus: BusConfig{BufferSize: 100},
		raw: []byte("{}"),
	}
}
