package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "Asia/Seoul"
	configPathEnv     = "EXCLUSIVE_SCANNER_CONFIG"
	databasePathEnv   = "DATABASE_PATH"
	anthropicKeyEnv   = "ANTHROPIC_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	adminTokenEnv     = "ADMIN_BOT_TOKEN"
	adminChatIDEnv    = "ADMIN_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
	httpAddrEnv       = "HTTP_ADDR"
)

const searchURL = "https://search.naver.com/search.naver?ssc=tab.news.all&query=%EB%8B%A8%EB%8F%85&sm=tab_opt&sort=0&photo=0&field=0&ds=&de=&docid=&related=0&mynews=0&office_type=0&office_section_code=0&news_office_checked=&nso=so%3Ar%2Cp%3Aall&is_sug_officeid=0&office_category=0&service_area=0&pd="

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Source        SourceConfig       `yaml:"source"`
	Recovery      RecoveryConfig     `yaml:"recovery"`
	Anthropic     AnthropicConfig    `yaml:"anthropic"`
	Notifications NotificationConfig `yaml:"notifications"`
	Filter        FilterConfig       `yaml:"filter"`
	Ranking       RankingConfig      `yaml:"ranking"`
	Dedup         DedupConfig        `yaml:"dedup"`
	Logging       LoggingConfig      `yaml:"logging"`
	Server        ServerConfig       `yaml:"server"`
}

// DatabaseConfig points at the SQLite file holding news and state documents.
type DatabaseConfig struct {
	Path          string `yaml:"path"`
	BusyTimeoutMS int    `yaml:"busyTimeoutMs"`
}

// SchedulerConfig defines when the pipeline should run and in which calendar.
type SchedulerConfig struct {
	Interval   time.Duration  `yaml:"interval"`
	RunOnStart bool           `yaml:"runOnStart"`
	Timezone   string         `yaml:"timezone"`
	Holidays   []string       `yaml:"holidays"`
	location   *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SourceConfig describes the search results pages.
type SourceConfig struct {
	URLs           WindowURLs `yaml:"urls"`
	Domain         string     `yaml:"domain"`
	Marker         string     `yaml:"marker"`
	UserAgent      string     `yaml:"userAgent"`
	TimeoutSeconds int        `yaml:"timeoutSeconds"`
}

// WindowURLs maps each time window to its query URL.
type WindowURLs struct {
	Morning string `yaml:"morning"`
	Weekend string `yaml:"weekend"`
	Weekday string `yaml:"weekday"`
}

// RecoveryConfig tunes the empty-result recovery path.
type RecoveryConfig struct {
	Anchor         string `yaml:"anchor"`
	SliceSize      int    `yaml:"sliceSize"`
	DiscoveryURL   string `yaml:"discoveryUrl"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// AnthropicConfig defines how to contact the Messages API.
type AnthropicConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Version        string `yaml:"version"`
	APIKey         string `yaml:"apiKey"`
	DiscoveryModel string `yaml:"discoveryModel"`
	RankingModel   string `yaml:"rankingModel"`
	SummaryModel   string `yaml:"summaryModel"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	APIBase  string         `yaml:"apiBase"`
	Telegram TelegramConfig `yaml:"telegram"`
	Admin    TelegramConfig `yaml:"admin"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// FilterConfig lists blocked publishers and keywords.
type FilterConfig struct {
	BannedPublishers []string `yaml:"bannedPublishers"`
	BannedKeywords   []string `yaml:"bannedKeywords"`
}

// RankingConfig sets the score cutoff and digest size.
type RankingConfig struct {
	MinScore int `yaml:"minScore"`
	MaxSend  int `yaml:"maxSend"`
}

// DedupConfig controls record retention and batch sizes.
type DedupConfig struct {
	TTLDays     int `yaml:"ttlDays"`
	LookupBatch int `yaml:"lookupBatch"`
	WriteBatch  int `yaml:"writeBatch"`
}

// TTL converts TTLDays to a duration.
func (d DedupConfig) TTL() time.Duration {
	return time.Duration(d.TTLDays) * 24 * time.Hour
}

// LoggingConfig selects level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig is the HTTP trigger listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads the file named by EXCLUSIVE_SCANNER_CONFIG (if set) and applies
// environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile reads YAML configuration from path (if present) and applies
// environment overrides.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{databasePathEnv, &c.Database.Path},
		{anthropicKeyEnv, &c.Anthropic.APIKey},
		{telegramTokenEnv, &c.Notifications.Telegram.BotToken},
		{telegramChatIDEnv, &c.Notifications.Telegram.ChatID},
		{adminTokenEnv, &c.Notifications.Admin.BotToken},
		{adminChatIDEnv, &c.Notifications.Admin.ChatID},
		{logLevelEnv, &c.Logging.Level},
		{httpAddrEnv, &c.Server.Addr},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, err = time.LoadLocation(defaultTimezone)
		if err != nil {
			loc = time.FixedZone("KST", 9*60*60)
		}
	}
	c.Scheduler.location = loc
}

func mergeString(base *string, override string) {
	if override != "" {
		*base = override
	}
}

func mergeInt(base *int, override int) {
	if override > 0 {
		*base = override
	}
}

func mergeConfig(base, override Config) Config {
	mergeString(&base.Database.Path, override.Database.Path)
	mergeInt(&base.Database.BusyTimeoutMS, override.Database.BusyTimeoutMS)

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.RunOnStart {
		base.Scheduler.RunOnStart = true
	}
	mergeString(&base.Scheduler.Timezone, override.Scheduler.Timezone)
	if len(override.Scheduler.Holidays) > 0 {
		base.Scheduler.Holidays = override.Scheduler.Holidays
	}

	mergeString(&base.Source.URLs.Morning, override.Source.URLs.Morning)
	mergeString(&base.Source.URLs.Weekend, override.Source.URLs.Weekend)
	mergeString(&base.Source.URLs.Weekday, override.Source.URLs.Weekday)
	mergeString(&base.Source.Domain, override.Source.Domain)
	mergeString(&base.Source.Marker, override.Source.Marker)
	mergeString(&base.Source.UserAgent, override.Source.UserAgent)
	mergeInt(&base.Source.TimeoutSeconds, override.Source.TimeoutSeconds)

	mergeString(&base.Recovery.Anchor, override.Recovery.Anchor)
	mergeInt(&base.Recovery.SliceSize, override.Recovery.SliceSize)
	mergeString(&base.Recovery.DiscoveryURL, override.Recovery.DiscoveryURL)
	mergeInt(&base.Recovery.TimeoutSeconds, override.Recovery.TimeoutSeconds)

	mergeString(&base.Anthropic.Endpoint, override.Anthropic.Endpoint)
	mergeString(&base.Anthropic.Version, override.Anthropic.Version)
	mergeString(&base.Anthropic.APIKey, override.Anthropic.APIKey)
	mergeString(&base.Anthropic.DiscoveryModel, override.Anthropic.DiscoveryModel)
	mergeString(&base.Anthropic.RankingModel, override.Anthropic.RankingModel)
	mergeString(&base.Anthropic.SummaryModel, override.Anthropic.SummaryModel)

	mergeString(&base.Notifications.APIBase, override.Notifications.APIBase)
	mergeString(&base.Notifications.Telegram.BotToken, override.Notifications.Telegram.BotToken)
	mergeString(&base.Notifications.Telegram.ChatID, override.Notifications.Telegram.ChatID)
	mergeString(&base.Notifications.Admin.BotToken, override.Notifications.Admin.BotToken)
	mergeString(&base.Notifications.Admin.ChatID, override.Notifications.Admin.ChatID)

	if override.Filter.BannedPublishers != nil {
		base.Filter.BannedPublishers = override.Filter.BannedPublishers
	}
	if override.Filter.BannedKeywords != nil {
		base.Filter.BannedKeywords = override.Filter.BannedKeywords
	}

	mergeInt(&base.Ranking.MinScore, override.Ranking.MinScore)
	mergeInt(&base.Ranking.MaxSend, override.Ranking.MaxSend)

	mergeInt(&base.Dedup.TTLDays, override.Dedup.TTLDays)
	mergeInt(&base.Dedup.LookupBatch, override.Dedup.LookupBatch)
	mergeInt(&base.Dedup.WriteBatch, override.Dedup.WriteBatch)

	mergeString(&base.Logging.Level, override.Logging.Level)
	mergeString(&base.Logging.Format, override.Logging.Format)

	mergeString(&base.Server.Addr, override.Server.Addr)

	return base
}

func defaultConfig() Config {
	return Config{
		Database:  DatabaseConfig{Path: "data/exclusive.db", BusyTimeoutMS: 5000},
		Scheduler: SchedulerConfig{Interval: 10 * time.Minute, Timezone: defaultTimezone},
		Source: SourceConfig{
			URLs: WindowURLs{
				Morning: searchURL + "12",
				Weekend: searchURL + "9",
				Weekday: searchURL + "7",
			},
			Domain:         "https://n.news.naver.com",
			Marker:         "[단독]",
			TimeoutSeconds: 20,
		},
		Recovery: RecoveryConfig{
			Anchor:         `<div class="group_news">`,
			SliceSize:      9999,
			TimeoutSeconds: 30,
		},
		Anthropic: AnthropicConfig{
			Endpoint:       "https://api.anthropic.com/v1/messages",
			Version:        "2023-06-01",
			DiscoveryModel: "claude-sonnet-4-5-20250929",
			RankingModel:   "claude-haiku-4-5-20251001",
			SummaryModel:   "claude-haiku-4-5-20251001",
		},
		Notifications: NotificationConfig{APIBase: "https://api.telegram.org"},
		Filter:        FilterConfig{BannedPublishers: []string{"bnt뉴스"}},
		Ranking:       RankingConfig{MinScore: 5, MaxSend: 6},
		Dedup:         DedupConfig{TTLDays: 14, LookupBatch: 30, WriteBatch: 500},
		Logging:       LoggingConfig{Level: "info", Format: "text"},
		Server:        ServerConfig{Addr: ":8080"},
	}
}
