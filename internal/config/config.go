package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Safety    SafetyConfig    `mapstructure:"safety"`
	Input     InputConfig     `mapstructure:"input"`
	Screen    ScreenConfig    `mapstructure:"screen"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ProviderConfig selects and configures the vision-language backend.
type ProviderConfig struct {
	Name    string        `mapstructure:"name"`    // gemini, claude, openai
	Model   string        `mapstructure:"model"`   // empty means provider default
	APIKey  string        `mapstructure:"api_key"` // resolved from env when empty
	Timeout time.Duration `mapstructure:"timeout"`
}

// TemplatesConfig configures the on-disk template store and the matcher.
type TemplatesConfig struct {
	Dir        string  `mapstructure:"dir"`
	Confidence float64 `mapstructure:"confidence"`
}

// SafetyConfig configures the confirmation gate.
type SafetyConfig struct {
	Level string `mapstructure:"level"` // high, medium, low
}

// InputConfig configures the input dispatcher.
type InputConfig struct {
	WaitDuration time.Duration `mapstructure:"wait_duration"`
	MinInterval  time.Duration `mapstructure:"min_interval"`
	ScrollAmount int           `mapstructure:"scroll_amount"`
}

// ScreenConfig configures capture behavior.
type ScreenConfig struct {
	MaxUploadWidth int    `mapstructure:"max_upload_width"`
	ScreenshotDir  string `mapstructure:"screenshot_dir"` // empty disables debug saves
}

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // console or json
	LogFile    string `mapstructure:"log_file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// envKeysByProvider lists the conventional API key variables checked, in order,
// when no key is set explicitly.
var envKeysByProvider = map[string][]string{
	"gemini": {"DESKPILOT_GEMINI_KEY", "GEMINI_API_KEY"},
	"claude": {"DESKPILOT_ANTHROPIC_KEY", "ANTHROPIC_API_KEY"},
	"openai": {"DESKPILOT_OPENAI_KEY", "OPENAI_API_KEY"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.name", "gemini")
	v.SetDefault("provider.timeout", 60*time.Second)
	// Keys that default to empty still need registering: AutomaticEnv only
	// resolves keys viper already knows about.
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("screen.screenshot_dir", "")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("templates.dir", "templates")
	v.SetDefault("templates.confidence", 0.8)
	v.SetDefault("safety.level", "high")
	v.SetDefault("input.wait_duration", 5*time.Second)
	v.SetDefault("input.min_interval", 500*time.Millisecond)
	v.SetDefault("input.scroll_amount", 3)
	v.SetDefault("screen.max_upload_width", 1568)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.max_size_mb", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 14)
}

// Load reads configuration from an optional file plus DESKPILOT_* environment
// variables. Callers apply any CLI flag overrides and then call Finalize,
// which makes a missing API key for the selected provider a startup error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DESKPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Finalize resolves the API key and validates the config. Run it after all
// overrides are applied.
func (c *Config) Finalize() error {
	if err := c.resolveAPIKey(); err != nil {
		return err
	}
	return c.validate()
}

func (c *Config) resolveAPIKey() error {
	if c.Provider.APIKey != "" {
		return nil
	}
	keys, ok := envKeysByProvider[c.Provider.Name]
	if !ok {
		return fmt.Errorf("unknown provider: %s (supported: gemini, claude, openai)", c.Provider.Name)
	}
	for _, k := range keys {
		if val := os.Getenv(k); val != "" {
			c.Provider.APIKey = val
			return nil
		}
	}
	return fmt.Errorf("no API key for provider %s: set one of %s", c.Provider.Name, strings.Join(keys, ", "))
}

func (c *Config) validate() error {
	switch c.Safety.Level {
	case "high", "medium", "low":
	default:
		return fmt.Errorf("invalid safety level: %s (expected high, medium or low)", c.Safety.Level)
	}
	if c.Templates.Confidence <= 0 || c.Templates.Confidence > 1 {
		return fmt.Errorf("match confidence must be in (0, 1], got %v", c.Templates.Confidence)
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %v", c.Provider.Timeout)
	}
	return nil
}
