package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	IdentityBackendNocoDB   = "nocodb"
	IdentityBackendPostgres = "postgres"

	DefaultBumpRoleID = "1382278107024851005"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken     string
	GuildID          string
	BumpChannelID    string
	ConsoleChannelID string
	BumpRoleID       string

	// Identity store
	IdentityBackend   string // "nocodb" or "postgres"
	NocoDBBaseURL     string
	NocoDBAPIToken    string
	NocoDBTableID     string
	NocoDBWorkspaceID string
	NocoDBBaseID      string
	NocoDBRateLimit   float64 // requests per second

	// Database configuration, optional unless IdentityBackend is postgres
	DatabaseURL  string
	DatabaseName string

	// NATS servers for domain event export, empty disables export
	NATSServers string

	// HTTP health surface
	Port int

	// Timings
	RoleOfferTimeout   time.Duration
	PromptCleanupDelay time.Duration
	BumpCooldown       time.Duration
	LedgerRetention    time.Duration

	Metrics MetricsConfig

	// Detection and reward rules, overridable from a YAML file
	RulesFile string
	Rules     Rules

	// Environment
	Environment string // "development", "production" or "test"
	LogLevel    string
}

// MetricsConfig holds OpenTelemetry metric export settings
type MetricsConfig struct {
	Enabled        bool
	ServiceName    string
	ExporterType   string // "console", "otlp" or "none"
	OTLPEndpoint   string
	ExportInterval time.Duration
}

// Rules are the tunable detection and reward tables
type Rules struct {
	BumpServiceIDs       []string `yaml:"bump_service_ids"`
	ConfirmationPatterns []string `yaml:"confirmation_patterns"`
	HiddenUserIDs        []string `yaml:"hidden_user_ids"`
	ConsoleCommands      []string `yaml:"console_commands"`
	RewardLines          []string `yaml:"reward_lines"`
	CorrelationWindow    int      `yaml:"correlation_window"`
}

// DefaultRules returns the built-in rule tables
func DefaultRules() Rules {
	return Rules{
		BumpServiceIDs: []string{
			"302050872383242240", // Disboard
			"716390085896962058",
			"450100127256936458",
			"1382299188095746088",
		},
		ConfirmationPatterns: []string{
			`bump done`,
			`bumped`,
			`bump successful`,
			`server bumped`,
			`bump complete`,
			`successfully bumped`,
		},
		HiddenUserIDs: []string{
			"851409275010940948",
			"710833692490203156",
			"680123642557759539",
			"466884574081843202",
		},
		ConsoleCommands: []string{
			"crate key give {username} balanced 1 offline",
			"tempfly give {username} 3m",
		},
		RewardLines: []string{
			"1x Balanced Crate Key",
			"3 minutes Temp Fly",
		},
		CorrelationWindow: 10,
	}
}

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// Get returns the global configuration instance
func Get() *Config {
	mu.RLock()
	if instance != nil {
		defer mu.RUnlock()
		return instance
	}
	mu.RUnlock()

	once.Do(func() {
		cfg, err := load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		mu.Lock()
		instance = cfg
		mu.Unlock()
	})

	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Load reads configuration from the environment without touching the singleton
func Load() (*Config, error) {
	return load()
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Discord
		DiscordToken:     firstNonEmpty(os.Getenv("DISCORD_TOKEN"), os.Getenv("DISCORD_BOT_TOKEN")),
		GuildID:          os.Getenv("GUILD_ID"),
		BumpChannelID:    os.Getenv("BUMP_CHANNEL_ID"),
		ConsoleChannelID: os.Getenv("CONSOLE_CHANNEL_ID"),
		BumpRoleID:       envOrDefault("BUMP_ROLE_ID", DefaultBumpRoleID),

		// Identity store
		IdentityBackend:   strings.ToLower(envOrDefault("IDENTITY_BACKEND", IdentityBackendNocoDB)),
		NocoDBBaseURL:     strings.TrimRight(os.Getenv("NOCODB_BASE_URL"), "/"),
		NocoDBAPIToken:    os.Getenv("NOCODB_API_TOKEN"),
		NocoDBTableID:     os.Getenv("NOCODB_TABLE_ID"),
		NocoDBWorkspaceID: os.Getenv("NOCODB_WORKSPACE_ID"),
		NocoDBBaseID:      os.Getenv("NOCODB_BASE_ID"),
		NocoDBRateLimit:   5,

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		NATSServers: os.Getenv("NATS_SERVERS"),

		Port: 10000,

		RoleOfferTimeout:   2 * time.Minute,
		PromptCleanupDelay: 10 * time.Second,
		BumpCooldown:       2 * time.Hour,
		LedgerRetention:    30 * 24 * time.Hour,

		Metrics: MetricsConfig{
			Enabled:        os.Getenv("OTEL_ENABLED") == "true",
			ServiceName:    envOrDefault("OTEL_SERVICE_NAME", "bumpbot"),
			ExporterType:   envOrDefault("OTEL_EXPORTER_TYPE", "console"),
			OTLPEndpoint:   envOrDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),
			ExportInterval: 30 * time.Second,
		},

		RulesFile: os.Getenv("BUMP_RULES_FILE"),
		Rules:     DefaultRules(),

		// Environment
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
	}

	// Override defaults if environment variables are set
	if port := os.Getenv("PORT"); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		config.Port = parsed
	}
	if limit := os.Getenv("NOCODB_RATE_LIMIT"); limit != "" {
		parsed, err := strconv.ParseFloat(limit, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid NOCODB_RATE_LIMIT %q: %w", limit, err)
		}
		config.NocoDBRateLimit = parsed
	}
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MS"); interval != "" {
		ms, err := strconv.Atoi(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid OTEL_EXPORT_INTERVAL_MS %q: %w", interval, err)
		}
		config.Metrics.ExportInterval = time.Duration(ms) * time.Millisecond
	}

	durations := []struct {
		env    string
		target *time.Duration
	}{
		{"ROLE_OFFER_TIMEOUT", &config.RoleOfferTimeout},
		{"PROMPT_CLEANUP_DELAY", &config.PromptCleanupDelay},
		{"BUMP_COOLDOWN", &config.BumpCooldown},
		{"LEDGER_RETENTION", &config.LedgerRetention},
	}
	for _, d := range durations {
		raw := os.Getenv(d.env)
		if raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.env, raw, err)
		}
		*d.target = parsed
	}

	if config.RulesFile != "" {
		rules, err := LoadRules(config.RulesFile, config.Rules)
		if err != nil {
			return nil, err
		}
		config.Rules = rules
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.IdentityBackend {
	case IdentityBackendNocoDB, IdentityBackendPostgres:
	default:
		return fmt.Errorf("IDENTITY_BACKEND must be %q or %q, got %q", IdentityBackendNocoDB, IdentityBackendPostgres, c.IdentityBackend)
	}

	if c.Environment == "test" {
		return nil
	}

	// Validate required configuration
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.BumpChannelID == "" {
		return fmt.Errorf("BUMP_CHANNEL_ID is required")
	}
	if c.ConsoleChannelID == "" {
		return fmt.Errorf("CONSOLE_CHANNEL_ID is required")
	}
	switch c.IdentityBackend {
	case IdentityBackendNocoDB:
		if c.NocoDBBaseURL == "" || c.NocoDBAPIToken == "" || c.NocoDBTableID == "" {
			return fmt.Errorf("NOCODB_BASE_URL, NOCODB_API_TOKEN and NOCODB_TABLE_ID are required for the nocodb backend")
		}
	case IdentityBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	}
	return nil
}

// NocoDBConfigured reports whether the NocoDB identity store has credentials
func (c *Config) NocoDBConfigured() bool {
	return c.NocoDBBaseURL != "" && c.NocoDBAPIToken != "" && c.NocoDBTableID != ""
}

// LoadRules reads a YAML rules file. Keys absent from the file keep the
// values from base.
func LoadRules(path string, base Rules) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	var override Rules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	rules := base
	if override.BumpServiceIDs != nil {
		rules.BumpServiceIDs = override.BumpServiceIDs
	}
	if override.ConfirmationPatterns != nil {
		rules.ConfirmationPatterns = override.ConfirmationPatterns
	}
	if override.HiddenUserIDs != nil {
		rules.HiddenUserIDs = override.HiddenUserIDs
	}
	if override.ConsoleCommands != nil {
		rules.ConsoleCommands = override.ConsoleCommands
	}
	if override.RewardLines != nil {
		rules.RewardLines = override.RewardLines
	}
	if override.CorrelationWindow > 0 {
		rules.CorrelationWindow = override.CorrelationWindow
	}
	return rules, nil
}

// SetTestConfig replaces the global configuration, for tests only
func SetTestConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// ResetConfig clears the global configuration so the next Get reloads it
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig returns a configuration suitable for tests
func NewTestConfig() *Config {
	return &Config{
		GuildID:            "test-guild",
		BumpChannelID:      "test-bump-channel",
		ConsoleChannelID:   "test-console-channel",
		BumpRoleID:         DefaultBumpRoleID,
		IdentityBackend:    IdentityBackendNocoDB,
		NocoDBRateLimit:    5,
		Port:               10000,
		RoleOfferTimeout:   2 * time.Minute,
		PromptCleanupDelay: 10 * time.Second,
		BumpCooldown:       2 * time.Hour,
		LedgerRetention:    30 * 24 * time.Hour,
		Metrics: MetricsConfig{
			ServiceName:    "bumpbot-test",
			ExporterType:   "none",
			ExportInterval: time.Second,
		},
		Rules:       DefaultRules(),
		Environment: "test",
		LogLevel:    "debug",
	}
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
