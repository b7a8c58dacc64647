package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	HttpAddr string `yaml:"http_addr"`
	SiteURL  string `yaml:"site_url"`  // absolute base for feed, sitemap and email links
	SiteName string `yaml:"site_name"`

	ThreadsPerPage    int `yaml:"threads_per_page"`
	PostsPerPage      int `yaml:"posts_per_page"`
	FeedItems         int `yaml:"feed_items"`
	ThreadTitleMaxLen int `yaml:"thread_title_max_len"`
	PostBodyMaxLen    int `yaml:"post_body_max_len"`

	MailSubjectPrefix string        `yaml:"mail_subject_prefix"`
	MailFrom          string        `yaml:"mail_from"`
	NotifyTimeout     time.Duration `yaml:"notify_timeout"`

	JwtTTL        time.Duration `yaml:"jwt_ttl"`
	SecureCookies bool          `yaml:"secure_cookies"`

	PostRateInterval time.Duration `yaml:"post_rate_interval"` // one post per interval per user, after burst
	PostRateBurst    int           `yaml:"post_rate_burst"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Email struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	SenderName string `yaml:"sender_name"`
	Timeout    int    `yaml:"timeout"` // seconds
}

type Private struct {
	Pg     Pg     `yaml:"pg"`
	JwtKey string `yaml:"jwt_key"`
	Email  Email  `yaml:"email"`
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

// Sender returns the From address used for notification mail.
func (s *Config) Sender() string {
	if s.Public.MailFrom != "" {
		return s.Public.MailFrom
	}
	return s.Private.Email.Username
}

// DefaultPublic returns the public settings used when a key is absent from public.yaml.
func DefaultPublic() Public {
	return Public{
		HttpAddr:          ":8080",
		SiteURL:           "http://localhost:8080",
		SiteName:          "Forum",
		ThreadsPerPage:    10,
		PostsPerPage:      10,
		FeedItems:         15,
		ThreadTitleMaxLen: 100,
		PostBodyMaxLen:    10_000,
		MailSubjectPrefix: "[Forum]",
		NotifyTimeout:     10 * time.Second,
		JwtTTL:            30 * 24 * time.Hour,
		PostRateInterval:  10 * time.Second,
		PostRateBurst:     3,
		LogLevel:          "info",
	}
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err = yaml.Unmarshal(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}
}

// overrideFromEnv lets secrets live outside private.yaml.
func overrideFromEnv(private *Private) {
	if v := os.Getenv("FORUM_JWT_KEY"); v != "" {
		private.JwtKey = v
	}
	if v := os.Getenv("FORUM_PG_PASSWORD"); v != "" {
		private.Pg.Password = v
	}
	if v := os.Getenv("FORUM_SMTP_PASSWORD"); v != "" {
		private.Email.Password = v
	}
}

func validate(cfg *Config) error {
	if cfg.Private.JwtKey == "" {
		return fmt.Errorf("jwt_key is required")
	}
	if cfg.Private.Pg.Host == "" || cfg.Private.Pg.Dbname == "" {
		return fmt.Errorf("pg.host and pg.dbname are required")
	}
	if cfg.Public.ThreadsPerPage <= 0 || cfg.Public.PostsPerPage <= 0 {
		return fmt.Errorf("threads_per_page and posts_per_page must be positive")
	}
	if cfg.Public.PostRateBurst <= 0 {
		return fmt.Errorf("post_rate_burst must be positive")
	}
	return nil
}

func MustLoad(configFolder string) *Config {
	public := DefaultPublic()
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)
	overrideFromEnv(&private)

	cfg := &Config{Public: public, Private: private}
	if err := validate(cfg); err != nil {
		panic("invalid config: " + err.Error())
	}
	return cfg
}
