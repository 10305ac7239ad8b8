package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	intakeservice "github.com/zhouzirui/leadbot/backend/internal/service/intake"
	"github.com/zhouzirui/leadbot/backend/internal/service/validate"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Intake   IntakeConfig
	Telegram TelegramConfig
	Storage  StorageConfig
	Content  ContentConfig
	Log      LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	// 兼容旧版 .env 中的 TOKEN 变量。
	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = strings.TrimSpace(os.Getenv("TOKEN"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Addr string
	// 为空时不开放会话与表单查询接口
	AdminToken string `env:"ADMIN_TOKEN"`
}

// normalizeAddr 解析服务器监听地址。
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// IntakeConfig 描述表单状态机的关键词与校验阈值。
type IntakeConfig struct {
	StartKeywords   []string      `env:"INTAKE_START_KEYWORDS" envDefault:"📝 Оставить заявку,/request"`
	CancelKeywords  []string      `env:"INTAKE_CANCEL_KEYWORDS" envDefault:"❌ Отменить,/cancel"`
	MinNameLen      int           `env:"INTAKE_MIN_NAME_LEN" envDefault:"2"`
	MinPhoneDigits  int           `env:"INTAKE_MIN_PHONE_DIGITS" envDefault:"10"`
	MinMessageLen   int           `env:"INTAKE_MIN_MESSAGE_LEN" envDefault:"5"`
	InfoIntercept   bool          `env:"INTAKE_INFO_INTERCEPT" envDefault:"false"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	JanitorInterval time.Duration `env:"SESSION_JANITOR_INTERVAL" envDefault:"10m"`
	SinkTimeout     time.Duration `env:"SUBMISSION_TIMEOUT" envDefault:"15s"`
}

// Rules 返回字段校验阈值。
func (c IntakeConfig) Rules() validate.Rules {
	return validate.Rules{
		MinNameLen:     c.MinNameLen,
		MinPhoneDigits: c.MinPhoneDigits,
		MinMessageLen:  c.MinMessageLen,
	}
}

// Options 转换为调度器选项。
func (c IntakeConfig) Options() intakeservice.Options {
	return intakeservice.Options{
		StartKeywords:  c.StartKeywords,
		CancelKeywords: c.CancelKeywords,
		Rules:          c.Rules(),
		InfoIntercept:  c.InfoIntercept,
		SinkTimeout:    c.SinkTimeout,
	}
}

// Telegram 更新的接收方式。
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
	ModeOff     = "off"
)

// TelegramConfig 描述 Bot API 相关配置。
type TelegramConfig struct {
	Token          string        `env:"TELEGRAM_TOKEN"`
	BaseURL        string        `env:"TELEGRAM_BASE_URL"`
	Mode           string        `env:"TELEGRAM_MODE" envDefault:"polling"`
	OperatorChatID int64         `env:"TELEGRAM_OPERATOR_CHAT_ID"`
	WebhookURL     string        `env:"TELEGRAM_WEBHOOK_URL"`
	WebhookSecret  string        `env:"TELEGRAM_WEBHOOK_SECRET"`
	PollTimeout    time.Duration `env:"TELEGRAM_POLL_TIMEOUT" envDefault:"30s"`
	Workers        int           `env:"TELEGRAM_WORKERS" envDefault:"8"`
	QueueDepth     int           `env:"TELEGRAM_QUEUE_DEPTH" envDefault:"64"`
}

// Enabled 表示是否需要启动 Telegram 传输层。
func (c TelegramConfig) Enabled() bool {
	return c.Mode != ModeOff
}

// 提交记录的存储后端。
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// StorageConfig 描述已完成表单的持久化配置。
type StorageConfig struct {
	Backend    string `env:"STORAGE_BACKEND" envDefault:"file"`
	LeadsFile  string `env:"LEADS_FILE" envDefault:"leads.txt"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"leads.db"`
}

// ContentConfig 描述静态信息回复的来源。
type ContentConfig struct {
	File  string `env:"CONTENT_FILE"`
	Watch bool   `env:"CONTENT_WATCH" envDefault:"true"`
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Validate 检查互相矛盾或缺失的配置。
func (c *Config) Validate() error {
	switch c.Telegram.Mode {
	case ModePolling, ModeWebhook:
		if c.Telegram.Token == "" {
			return fmt.Errorf("TELEGRAM_TOKEN is required when TELEGRAM_MODE=%s", c.Telegram.Mode)
		}
	case ModeOff:
	default:
		return fmt.Errorf("invalid TELEGRAM_MODE value: %q", c.Telegram.Mode)
	}
	if c.Telegram.Mode == ModeWebhook && c.Telegram.WebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL is required when TELEGRAM_MODE=webhook")
	}

	switch c.Storage.Backend {
	case BackendFile:
		if strings.TrimSpace(c.Storage.LeadsFile) == "" {
			return fmt.Errorf("LEADS_FILE is required for the file backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND value: %q", c.Storage.Backend)
	}

	if len(c.Intake.StartKeywords) == 0 {
		return fmt.Errorf("INTAKE_START_KEYWORDS must not be empty")
	}
	if len(c.Intake.CancelKeywords) == 0 {
		return fmt.Errorf("INTAKE_CANCEL_KEYWORDS must not be empty")
	}
	if c.Intake.MinNameLen < 0 || c.Intake.MinPhoneDigits < 0 || c.Intake.MinMessageLen < 0 {
		return fmt.Errorf("intake thresholds must not be negative")
	}
	return nil
}
