// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/fetcher/headless"
)

// Config captures every configuration knob loaded via Viper.
type Config struct {
	Channel     ChannelConfig     `mapstructure:"channel"`
	Harvester   HarvesterConfig   `mapstructure:"harvester"`
	Extractor   ExtractorConfig   `mapstructure:"extractor"`
	Headless    HeadlessConfig    `mapstructure:"headless"`
	Output      OutputConfig      `mapstructure:"output"`
	LinkCheck   LinkCheckConfig   `mapstructure:"linkcheck"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ChannelConfig names the harvested channel.
type ChannelConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// HarvesterConfig governs the enumerate-resolve pipeline.
type HarvesterConfig struct {
	Categories               []string `mapstructure:"categories"`
	MaxItems                 int      `mapstructure:"max_items"`
	BaseDelaySeconds         int      `mapstructure:"base_delay_seconds"`
	MaxExtraDelaySeconds     int      `mapstructure:"max_extra_delay_seconds"`
	TrustListingAvailability bool     `mapstructure:"trust_listing_availability"`
}

// ExtractorConfig controls the yt-dlp subprocess.
type ExtractorConfig struct {
	Binary                 string `mapstructure:"binary"`
	DetailAttempts         int    `mapstructure:"detail_attempts"`
	DetailRetryDelaySecond int    `mapstructure:"detail_retry_delay_seconds"`
	SleepIntervalSeconds   int    `mapstructure:"sleep_interval_seconds"`
	MaxSleepSeconds        int    `mapstructure:"max_sleep_seconds"`
}

// HeadlessConfig configures the publish-time page probe.
type HeadlessConfig struct {
	Attempts          int      `mapstructure:"attempts"`
	RetryDelaySeconds int      `mapstructure:"retry_delay_seconds"`
	NavTimeoutSec     int      `mapstructure:"nav_timeout_seconds"`
	UserAgent         string   `mapstructure:"user_agent"`
	Selectors         []string `mapstructure:"selectors"`
}

// OutputConfig sets where archive collections are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// LinkCheckConfig controls the link liveness checker.
type LinkCheckConfig struct {
	ArchivesDir  string `mapstructure:"archives_dir"`
	DelaySeconds int    `mapstructure:"delay_seconds"`
	ReportPath   string `mapstructure:"report_path"`
}

// DiagnosticsConfig toggles the end-of-run diagnostics dump.
type DiagnosticsConfig struct {
	DumpEnabled bool   `mapstructure:"dump_enabled"`
	DumpPath    string `mapstructure:"dump_path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARCHIVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("channel.base_url", "https://www.youtube.com")
	v.SetDefault("harvester.categories", []string{"streams", "videos", "shorts"})
	v.SetDefault("harvester.max_items", 0)
	v.SetDefault("harvester.base_delay_seconds", 5)
	v.SetDefault("harvester.max_extra_delay_seconds", 10)
	v.SetDefault("harvester.trust_listing_availability", true)
	v.SetDefault("extractor.binary", "yt-dlp")
	v.SetDefault("extractor.detail_attempts", 3)
	v.SetDefault("extractor.detail_retry_delay_seconds", 5)
	v.SetDefault("extractor.sleep_interval_seconds", 5)
	v.SetDefault("extractor.max_sleep_seconds", 15)
	v.SetDefault("headless.attempts", 3)
	v.SetDefault("headless.retry_delay_seconds", 2)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.selectors", headless.DefaultSelectors)
	v.SetDefault("output.dir", "docs/src")
	v.SetDefault("linkcheck.archives_dir", "docs/src")
	v.SetDefault("linkcheck.delay_seconds", 1)
	v.SetDefault("linkcheck.report_path", "broken_video_links_report.json")
	v.SetDefault("diagnostics.dump_enabled", false)
	v.SetDefault("diagnostics.dump_path", "debug_videos.json")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Channel.BaseURL == "" {
		return fmt.Errorf("channel.base_url must be set")
	}
	if len(c.Harvester.Categories) == 0 {
		return fmt.Errorf("harvester.categories must include at least one category")
	}
	if c.Harvester.BaseDelaySeconds < 0 {
		return fmt.Errorf("harvester.base_delay_seconds must be >= 0")
	}
	if c.Extractor.Binary == "" {
		return fmt.Errorf("extractor.binary must be set")
	}
	if c.Extractor.DetailAttempts <= 0 {
		return fmt.Errorf("extractor.detail_attempts must be > 0")
	}
	if c.Headless.Attempts <= 0 {
		return fmt.Errorf("headless.attempts must be > 0")
	}
	if c.Headless.NavTimeoutSec <= 0 {
		return fmt.Errorf("headless.nav_timeout_seconds must be > 0")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.LinkCheck.DelaySeconds < 0 {
		return fmt.Errorf("linkcheck.delay_seconds must be >= 0")
	}
	return nil
}

// BaseDelay converts the politeness knobs into durations.
func (c HarvesterConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelaySeconds) * time.Second
}

// MaxExtraDelay returns the jitter cap as a duration.
func (c HarvesterConfig) MaxExtraDelay() time.Duration {
	return time.Duration(c.MaxExtraDelaySeconds) * time.Second
}

// DetailRetryDelay returns the fixed inter-attempt wait as a duration.
func (c ExtractorConfig) DetailRetryDelay() time.Duration {
	return time.Duration(c.DetailRetryDelaySecond) * time.Second
}

// RetryDelay returns the probe retry wait as a duration.
func (c HeadlessConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// NavTimeout returns the navigation timeout as a duration.
func (c HeadlessConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutSec) * time.Second
}

// Delay returns the checker pacing interval as a duration.
func (c LinkCheckConfig) Delay() time.Duration {
	return time.Duration(c.DelaySeconds) * time.Second
}
