// ABOUTME: Application configuration loaded from file, .env and environment
// ABOUTME: Validates settings and converts them into a mixer configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
	"github.com/Sendspin/sendspin-mixer/pkg/audio/output"
	"github.com/Sendspin/sendspin-mixer/pkg/mixer"
)

// EnvPrefix prefixes every environment override, e.g. SENDSPIN_MIXER_MIXER_SOURCES
const EnvPrefix = "SENDSPIN_MIXER"

// Config holds all configuration for the application
type Config struct {
	Mixer   MixerConfig   `mapstructure:"mixer"`
	Audio   AudioConfig   `mapstructure:"audio"`
	Output  OutputConfig  `mapstructure:"output"`
	NetMic  NetMicConfig  `mapstructure:"netmic"`
	Logging LoggingConfig `mapstructure:"logging"`
	UI      UIConfig      `mapstructure:"ui"`
}

// MixerConfig sizes the source pool and the tick loop
type MixerConfig struct {
	Sources          int           `mapstructure:"sources"`
	BuffersPerSource int           `mapstructure:"buffers_per_source"`
	ChunkMs          int           `mapstructure:"chunk_ms"`
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	DefaultVolume    float64       `mapstructure:"default_volume"`
	MusicVolume      float64       `mapstructure:"music_volume"`
}

// AudioConfig is the device format every player must match
type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	Channels   int `mapstructure:"channels"`
	BitDepth   int `mapstructure:"bit_depth"`
}

// OutputConfig selects the playback backend
type OutputConfig struct {
	Backend string `mapstructure:"backend"`
}

// NetMicConfig controls the network microphone endpoint
type NetMicConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Name    string `mapstructure:"name"`
	MDNS    bool   `mapstructure:"mdns"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
	File   string `mapstructure:"file"`   // empty logs to stderr
}

// UIConfig toggles the terminal status view
type UIConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SetDefaults registers every key so environment overrides resolve
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mixer.sources", 32)
	v.SetDefault("mixer.buffers_per_source", 4)
	v.SetDefault("mixer.chunk_ms", 20)
	v.SetDefault("mixer.tick_interval", "5ms")
	v.SetDefault("mixer.default_volume", 1.0)
	v.SetDefault("mixer.music_volume", 0.8)

	v.SetDefault("audio.sample_rate", 48000)
	v.SetDefault("audio.channels", 2)
	v.SetDefault("audio.bit_depth", 16)

	v.SetDefault("output.backend", "oto")

	v.SetDefault("netmic.enabled", false)
	v.SetDefault("netmic.port", 8928)
	v.SetDefault("netmic.name", defaultName())
	v.SetDefault("netmic.mdns", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")

	v.SetDefault("ui.enabled", false)
}

// LoadConfig loads configuration into the global viper instance
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load reads .env, the config file and the environment into v and decodes it.
// A config file set explicitly with SetConfigFile must exist.
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	SetDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.sendspin-mixer")
	v.AddConfigPath("/etc/sendspin-mixer")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Debug().Msg("No config file found, using defaults and environment variables")
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("Using config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch {
	case c.Mixer.Sources <= 0:
		return &ConfigError{Field: "mixer.sources", Message: "must be positive"}
	case c.Mixer.BuffersPerSource <= 0:
		return &ConfigError{Field: "mixer.buffers_per_source", Message: "must be positive"}
	case c.Mixer.ChunkMs <= 0:
		return &ConfigError{Field: "mixer.chunk_ms", Message: "must be positive"}
	case c.Mixer.TickInterval <= 0:
		return &ConfigError{Field: "mixer.tick_interval", Message: "must be positive"}
	case c.Mixer.DefaultVolume < 0 || c.Mixer.DefaultVolume > 1:
		return &ConfigError{Field: "mixer.default_volume", Message: "must be within [0,1]"}
	case c.Mixer.MusicVolume < 0 || c.Mixer.MusicVolume > 1:
		return &ConfigError{Field: "mixer.music_volume", Message: "must be within [0,1]"}
	}

	if !c.Format().Valid() {
		return &ConfigError{Field: "audio", Message: fmt.Sprintf("unsupported format %s", c.Format())}
	}
	if c.chunkBytes() == 0 {
		return &ConfigError{Field: "mixer.chunk_ms", Message: "shorter than one frame"}
	}

	if !knownBackend(c.Output.Backend) {
		return &ConfigError{
			Field:   "output.backend",
			Message: fmt.Sprintf("unknown backend %q (want one of %s)", c.Output.Backend, strings.Join(output.Names, ", ")),
		}
	}

	if c.NetMic.Enabled {
		if c.NetMic.Port <= 0 || c.NetMic.Port > 65535 {
			return &ConfigError{Field: "netmic.port", Message: "must be within 1-65535"}
		}
		if c.NetMic.Name == "" {
			return &ConfigError{Field: "netmic.name", Message: "is required when the endpoint is enabled"}
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "console", "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be console or json"}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: "must be debug, info, warn or error"}
	}

	return nil
}

// Format returns the configured device format
func (c *Config) Format() audio.Format {
	return audio.Format{
		SampleRate: c.Audio.SampleRate,
		Channels:   c.Audio.Channels,
		BitDepth:   c.Audio.BitDepth,
	}
}

// MixerConfig converts the settings into a mixer configuration
func (c *Config) MixerConfig() mixer.Config {
	return mixer.Config{
		Sources:          c.Mixer.Sources,
		BuffersPerSource: c.Mixer.BuffersPerSource,
		ChunkBytes:       c.chunkBytes(),
		Format:           c.Format(),
		TickInterval:     c.Mixer.TickInterval,
		DefaultVolume:    c.Mixer.DefaultVolume,
		MusicVolume:      c.Mixer.MusicVolume,
	}
}

func (c *Config) chunkBytes() int {
	return c.Format().BytesFor(time.Duration(c.Mixer.ChunkMs) * time.Millisecond)
}

func knownBackend(name string) bool {
	for _, n := range output.Names {
		if n == name {
			return true
		}
	}
	return false
}

func defaultName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "sendspin-mixer"
	}
	return host + "-mixer"
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
