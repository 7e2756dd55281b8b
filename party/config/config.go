package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// SinkConfig stores notification-sink configuration as key-value pairs.
type SinkConfig map[string]string

// Config wraps viper and provides typed accessors.
type Config struct {
	v     *viper.Viper
	sinks map[string]SinkConfig
}

// Load reads a config file and prepares defaults. An empty path yields the
// defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WATCHPARTY")
	v.AutomaticEnv()

	setDefaults(v)

	c := &Config{
		v:     v,
		sinks: make(map[string]SinkConfig),
	}

	switch {
	case strings.TrimSpace(path) == "":
	case strings.EqualFold(filepath.Ext(path), ".ini"):
		cfg, err := loadINI(v, path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		loadSinks(cfg, c)
	default:
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenAddr", ":8095")
	v.SetDefault("PublicURL", "http://localhost:8095")
	v.SetDefault("TrustProxyHeaders", false)
	v.SetDefault("DefaultServerSecure", "wss://watchparty-4u9v.onrender.com")
	v.SetDefault("DefaultServerInsecure", "ws://localhost:3000")
	v.SetDefault("ChatBaseURL", "https://watchparty-4u9v.onrender.com/chat.html")
	v.SetDefault("PollIntervalSec", 15)
	v.SetDefault("RequestTimeoutSec", 8)
	v.SetDefault("RequestMaxRetries", 2)
	v.SetDefault("Database", "watchparty.db")
	v.SetDefault("DBMaxOpenConns", 1)
	v.SetDefault("DBMaxIdleConns", 1)
	v.SetDefault("DBConnMaxLifetimeSec", 3600)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "text")
	v.SetDefault("LogSource", false)
	v.SetDefault("LogDir", "./log")
	v.SetDefault("LogMaxSizeMB", 10)
	v.SetDefault("LogMaxBackups", 5)
	v.SetDefault("GormLogLevel", "warn")
	v.SetDefault("DBSlowQueryMs", 200)
	v.SetDefault("WorkerPoolSize", 4)
	v.SetDefault("FeedbackRatePerSecond", 0.2)
	v.SetDefault("FeedbackBurst", 3)
	v.SetDefault("FeedbackMaxLength", 2000)
	v.SetDefault("FeedbackTimeoutSec", 10)
	v.SetDefault("TelegramBotToken", "")
	v.SetDefault("TelegramChatID", 0)
	v.SetDefault("TelegramAPI", "https://api.telegram.org")
}

// GetString returns a string value.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns an int value.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 returns an int64 value.
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetFloat64 returns a float64 value.
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool returns a bool value.
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// Set overrides a value, mainly for command-line flags.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// GetSinkConfig retrieves a [notify.<name>] section.
func (c *Config) GetSinkConfig(name string) (SinkConfig, bool) {
	cfg, ok := c.sinks[name]
	return cfg, ok
}

// SinkNames returns the configured notification sink names.
func (c *Config) SinkNames() []string {
	if len(c.sinks) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.sinks))
	for name := range c.sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetSinkString returns a string value from a sink section.
// Returns empty string if the sink or key is not found.
func (c *Config) GetSinkString(sink, key string) string {
	cfg, ok := c.sinks[sink]
	if !ok {
		return ""
	}
	return cfg[key]
}

// GetSinkInt64 returns an int64 value from a sink section.
// Returns 0 if the sink or key is not found, or the value is not a number.
func (c *Config) GetSinkInt64(sink, key string) int64 {
	num, err := strconv.ParseInt(strings.TrimSpace(c.GetSinkString(sink, key)), 10, 64)
	if err != nil {
		return 0
	}
	return num
}

// GetSinkBool returns a bool value from a sink section.
// Returns false if the sink or key is not found.
func (c *Config) GetSinkBool(sink, key string) bool {
	val := strings.TrimSpace(c.GetSinkString(sink, key))
	return strings.EqualFold(val, "true") || val == "1"
}

func loadINI(v *viper.Viper, path string) (*ini.File, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}

	for _, key := range cfg.Section("").Keys() {
		v.Set(key.Name(), key.Value())
	}

	return cfg, nil
}

func loadSinks(cfg *ini.File, c *Config) {
	const sinkPrefix = "notify."

	for _, section := range cfg.Sections() {
		name := section.Name()
		if !strings.HasPrefix(name, sinkPrefix) {
			continue
		}
		sink := make(SinkConfig)
		for _, key := range section.Keys() {
			sink[key.Name()] = key.Value()
		}
		c.sinks[strings.TrimPrefix(name, sinkPrefix)] = sink
	}
}
