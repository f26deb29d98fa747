package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration. Values come from config.yaml when
// present, overridden by environment variables.
type Config struct {
	DatabaseURL    string `mapstructure:"database_url"`
	HTTPListenAddr string `mapstructure:"http_listen_addr"`

	QueueCapacity       int           `mapstructure:"queue_capacity"`
	OutreachWorkers     int           `mapstructure:"outreach_workers"`
	OutreachMaxAttempts int           `mapstructure:"outreach_max_attempts"`
	OutreachBackoff     time.Duration `mapstructure:"outreach_backoff"`
	OutreachSendTimeout time.Duration `mapstructure:"outreach_send_timeout"`
	OutreachFailLeads   bool          `mapstructure:"outreach_fail_leads"`
	OutreachCloseOnSent bool          `mapstructure:"outreach_close_on_sent"`

	NominatimBaseURL     string        `mapstructure:"nominatim_base_url"`
	NominatimUserAgent   string        `mapstructure:"nominatim_user_agent"`
	NominatimMinInterval time.Duration `mapstructure:"nominatim_min_interval"`
	NominatimCacheTTL    time.Duration `mapstructure:"nominatim_cache_ttl"`
	NominatimTimeout     time.Duration `mapstructure:"nominatim_timeout"`

	StaleClaimWindow   time.Duration `mapstructure:"stale_claim_window"`
	StaleSweepInterval time.Duration `mapstructure:"stale_sweep_interval"`

	RabbitUser string `mapstructure:"rabbit_user"`
	RabbitPass string `mapstructure:"rabbit_pass"`
	RabbitHost string `mapstructure:"rabbit_host"`
	RabbitPort string `mapstructure:"rabbit_port"`

	MailHost   string `mapstructure:"mail_host"`
	MailPort   int    `mapstructure:"mail_port"`
	MailUser   string `mapstructure:"mail_user"`
	MailPass   string `mapstructure:"mail_pass"`
	MailFrom   string `mapstructure:"mail_from"`
	SenderName string `mapstructure:"sender_name"`

	WhatsAppAccessToken string `mapstructure:"whatsapp_access_token"`
	WhatsAppPhoneID     string `mapstructure:"whatsapp_phone_id"`
}

func Load() (*Config, error) {
	viper.SetDefault("http_listen_addr", ":8080")
	viper.SetDefault("queue_capacity", 256)
	viper.SetDefault("outreach_workers", 4)
	viper.SetDefault("outreach_max_attempts", 3)
	viper.SetDefault("outreach_backoff", "2s")
	viper.SetDefault("outreach_send_timeout", "30s")
	viper.SetDefault("outreach_fail_leads", true)
	viper.SetDefault("outreach_close_on_sent", true)
	viper.SetDefault("nominatim_base_url", "https://nominatim.openstreetmap.org")
	viper.SetDefault("nominatim_user_agent", "lead-dispatch/1.0 (ops@fieldhq.example)")
	viper.SetDefault("nominatim_min_interval", "1200ms")
	viper.SetDefault("nominatim_cache_ttl", "24h")
	viper.SetDefault("nominatim_timeout", "30s")
	viper.SetDefault("stale_claim_window", "5m")
	viper.SetDefault("stale_sweep_interval", "1m")
	viper.SetDefault("mail_port", 587)
	viper.SetDefault("sender_name", "Dispatch Team")

	// AutomaticEnv only resolves keys viper already knows about. Credentials
	// have no meaningful default, so they are registered empty or an
	// env-only deployment would silently lose them.
	for _, key := range []string{
		"database_url",
		"rabbit_user", "rabbit_pass", "rabbit_host", "rabbit_port",
		"mail_host", "mail_user", "mail_pass", "mail_from",
		"whatsapp_access_token", "whatsapp_phone_id",
	} {
		viper.SetDefault(key, "")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file: defaults plus environment variables.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
