package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fputz/mailmirror/internal/transform"
)

const (
	envIMAPHost    = "MAILMIRROR_IMAP_HOST"
	envIMAPPort    = "MAILMIRROR_IMAP_PORT"
	envIMAPUser    = "MAILMIRROR_IMAP_USER"
	envIMAPPass    = "MAILMIRROR_IMAP_PASS"
	envZulipSite   = "MAILMIRROR_ZULIP_SITE"
	envZulipEmail  = "MAILMIRROR_ZULIP_EMAIL"
	envZulipAPIKey = "MAILMIRROR_ZULIP_API_KEY"
)

const defaultTemplate = "**{sender}** wrote:\n{body}"

// Config holds the non-secret configuration loaded from YAML. Connection
// secrets stay in environment variables, see IMAPEnvFromEnv and
// ZulipEnvFromEnv.
type Config struct {
	Stream                  string   `yaml:"stream"`
	Mailbox                 string   `yaml:"mailbox"`
	MessageTemplate         string   `yaml:"message_template"`
	UnwantedSubjectPrefixes []string `yaml:"unwanted_subject_prefixes"`
	FooterFilterKeywords    []string `yaml:"footer_filter_keywords"`
	RemoveMirroredMails     bool     `yaml:"remove_mirrored_mails"`
	QuoteBody               *bool    `yaml:"quote_body"`
	LogLevel                string   `yaml:"log_level"`
}

// IMAPEnv holds the IMAP connection details from environment variables.
type IMAPEnv struct {
	Host string
	Port int
	User string
	Pass string
}

// ZulipEnv holds the Zulip connection details from environment variables.
type ZulipEnv struct {
	Site   string
	Email  string
	APIKey string
}

// Load reads configuration from a YAML file and fills in defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.Mailbox) == "" {
		cfg.Mailbox = "INBOX"
	}
	if strings.TrimSpace(cfg.MessageTemplate) == "" {
		cfg.MessageTemplate = defaultTemplate
	}

	return cfg, nil
}

// Validate performs startup validation on non-secret config. A bad message
// template fails here, before anything is fetched.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Stream) == "" {
		return errors.New("config must define stream")
	}
	if _, err := transform.ParseTemplate(cfg.MessageTemplate); err != nil {
		return err
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// Template parses the configured message template. Call Validate first.
func (c Config) Template() (*transform.Template, error) {
	return transform.ParseTemplate(c.MessageTemplate)
}

// QuoteBodyEnabled reports whether mirrored bodies should be quoted
// line-by-line. Defaults to true.
func (c Config) QuoteBodyEnabled() bool {
	if c.QuoteBody == nil {
		return true
	}
	return *c.QuoteBody
}

// ParseLogLevel maps a log_level config value to a slog level. An empty
// value defaults to info.
func ParseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log_level %q", value)
	}
}

// IMAPEnvFromEnv loads IMAP connection details and validates required entries.
func IMAPEnvFromEnv() (IMAPEnv, error) {
	missing := []string{}

	host := strings.TrimSpace(os.Getenv(envIMAPHost))
	if host == "" {
		missing = append(missing, envIMAPHost)
	}

	portRaw := strings.TrimSpace(os.Getenv(envIMAPPort))
	if portRaw == "" {
		portRaw = "993"
	}

	user := strings.TrimSpace(os.Getenv(envIMAPUser))
	if user == "" {
		missing = append(missing, envIMAPUser)
	}

	pass := strings.TrimSpace(os.Getenv(envIMAPPass))
	if pass == "" {
		missing = append(missing, envIMAPPass)
	}

	if len(missing) > 0 {
		return IMAPEnv{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(portRaw)
	if err != nil {
		return IMAPEnv{}, fmt.Errorf("invalid %s: %w", envIMAPPort, err)
	}

	return IMAPEnv{
		Host: host,
		Port: port,
		User: user,
		Pass: pass,
	}, nil
}

// ZulipEnvFromEnv loads Zulip connection details and validates required entries.
func ZulipEnvFromEnv() (ZulipEnv, error) {
	missing := []string{}

	site := strings.TrimSpace(os.Getenv(envZulipSite))
	if site == "" {
		missing = append(missing, envZulipSite)
	}

	email := strings.TrimSpace(os.Getenv(envZulipEmail))
	if email == "" {
		missing = append(missing, envZulipEmail)
	}

	apiKey := strings.TrimSpace(os.Getenv(envZulipAPIKey))
	if apiKey == "" {
		missing = append(missing, envZulipAPIKey)
	}

	if len(missing) > 0 {
		return ZulipEnv{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return ZulipEnv{
		Site:   strings.TrimRight(site, "/"),
		Email:  email,
		APIKey: apiKey,
	}, nil
}

// Summary returns a concise config summary for validation runs.
func Summary(cfg Config) string {
	deletion := "keep mirrored mails"
	if cfg.RemoveMirroredMails {
		deletion = "delete mirrored mails"
	}
	return fmt.Sprintf(
		"Config summary\n"+
			"- stream: %s\n"+
			"- mailbox: %s\n"+
			"- subject prefixes: %d\n"+
			"- footer keywords: %d\n"+
			"- deletion: %s",
		cfg.Stream,
		cfg.Mailbox,
		len(cfg.UnwantedSubjectPrefixes),
		len(cfg.FooterFilterKeywords),
		deletion,
	)
}
