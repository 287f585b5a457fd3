package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all the configuration for the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	SMTP      SMTPConfig
	Storage   StorageConfig
	OTP       OTPConfig
	Mock      MockConfig
	Chat      ChatConfig
	Countries CountriesConfig
	JWTSecret string
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Env     string `mapstructure:"env"`
	AppName string `mapstructure:"appname"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// StorageConfig selects the backing store for each stateful component.
type StorageConfig struct {
	Users    string `mapstructure:"users"`    // memory | postgres
	OTP      string `mapstructure:"otp"`      // memory | redis
	Sessions string `mapstructure:"sessions"` // memory | file | redis
	FilePath string `mapstructure:"filepath"`
}

type OTPConfig struct {
	TTL            time.Duration `mapstructure:"ttl"`
	ResendCooldown time.Duration `mapstructure:"resendcooldown"`
	// MaxAttempts caps mismatched verifications per code; 0 means unlimited.
	MaxAttempts int `mapstructure:"maxattempts"`
	// ExposeCodes returns issued codes in API responses. Development only.
	ExposeCodes bool `mapstructure:"exposecodes"`
}

// MockConfig holds the artificial latencies of the mock services.
type MockConfig struct {
	ExistsDelay    time.Duration `mapstructure:"existsdelay"`
	CreateDelay    time.Duration `mapstructure:"createdelay"`
	SendDelay      time.Duration `mapstructure:"senddelay"`
	VerifyDelay    time.Duration `mapstructure:"verifydelay"`
	HistoryDelay   time.Duration `mapstructure:"historydelay"`
	ResponderDelay time.Duration `mapstructure:"responderdelay"`
}

type ChatConfig struct {
	PageSize        int   `mapstructure:"pagesize"`
	BottomThreshold int   `mapstructure:"bottomthreshold"`
	MaxImageBytes   int64 `mapstructure:"maximagebytes"`
}

type CountriesConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// envBindings maps structured keys to environment variable names.
var envBindings = map[string]string{
	"server.port":          "SERVER_PORT",
	"server.env":           "SERVER_ENV",
	"server.appname":       "APP_NAME",
	"database.url":         "DATABASE_URL",
	"redis.url":            "REDIS_URL",
	"jwtsecret":            "JWT_SECRET",
	"smtp.host":            "SMTP_HOST",
	"smtp.port":            "SMTP_PORT",
	"smtp.username":        "SMTP_USERNAME",
	"smtp.password":        "SMTP_PASSWORD",
	"smtp.from":            "SMTP_FROM",
	"storage.users":        "STORAGE_USERS",
	"storage.otp":          "STORAGE_OTP",
	"storage.sessions":     "STORAGE_SESSIONS",
	"storage.filepath":     "STORAGE_FILE_PATH",
	"otp.ttl":              "OTP_TTL",
	"otp.resendcooldown":   "OTP_RESEND_COOLDOWN",
	"otp.maxattempts":      "OTP_MAX_ATTEMPTS",
	"otp.exposecodes":      "OTP_EXPOSE_CODES",
	"mock.existsdelay":     "MOCK_EXISTS_DELAY",
	"mock.createdelay":     "MOCK_CREATE_DELAY",
	"mock.senddelay":       "MOCK_SEND_DELAY",
	"mock.verifydelay":     "MOCK_VERIFY_DELAY",
	"mock.historydelay":    "MOCK_HISTORY_DELAY",
	"mock.responderdelay":  "MOCK_RESPONDER_DELAY",
	"chat.pagesize":        "CHAT_PAGE_SIZE",
	"chat.bottomthreshold": "CHAT_BOTTOM_THRESHOLD",
	"chat.maximagebytes":   "CHAT_MAX_IMAGE_BYTES",
	"countries.url":        "COUNTRIES_URL",
	"countries.timeout":    "COUNTRIES_TIMEOUT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.appname", "Chatter")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("storage.users", "memory")
	v.SetDefault("storage.otp", "memory")
	v.SetDefault("storage.sessions", "memory")
	v.SetDefault("storage.filepath", ".data/store.json")
	v.SetDefault("otp.ttl", 5*time.Minute)
	v.SetDefault("otp.resendcooldown", 30*time.Second)
	v.SetDefault("otp.maxattempts", 0)
	v.SetDefault("mock.existsdelay", 500*time.Millisecond)
	v.SetDefault("mock.createdelay", time.Second)
	v.SetDefault("mock.senddelay", 1500*time.Millisecond)
	v.SetDefault("mock.verifydelay", time.Second)
	v.SetDefault("mock.historydelay", time.Second)
	v.SetDefault("mock.responderdelay", 500*time.Millisecond)
	v.SetDefault("chat.pagesize", 20)
	v.SetDefault("chat.bottomthreshold", 50)
	v.SetDefault("chat.maximagebytes", 5<<20)
	v.SetDefault("countries.url", "https://restcountries.com/v3.1/all?fields=name,cca2,idd,flag")
	v.SetDefault("countries.timeout", 10*time.Second)
}

// Load builds the configuration from defaults, an optional .env file and the
// process environment, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ godotenv could not load .env: %v", err)
	} else {
		log.Printf("ℹ️ .env loaded into process environment via godotenv")
	}

	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		log.Printf("⚠️ .env file not found, relying on environment variables")
	} else {
		log.Printf("ℹ️ Using config file: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("✅ Configuration loaded: env=%s users=%s otp=%s sessions=%s",
		cfg.Server.Env, cfg.Storage.Users, cfg.Storage.OTP, cfg.Storage.Sessions)
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Users {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: unknown STORAGE_USERS %q", c.Storage.Users)
	}
	switch c.Storage.OTP {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown STORAGE_OTP %q", c.Storage.OTP)
	}
	switch c.Storage.Sessions {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("config: unknown STORAGE_SESSIONS %q", c.Storage.Sessions)
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("config: JWT_SECRET is required outside development")
		}
		c.JWTSecret = "development-only-secret"
		log.Printf("⚠️ JWT_SECRET not set, using a development secret")
	}
	if c.Chat.PageSize <= 0 {
		return fmt.Errorf("config: CHAT_PAGE_SIZE must be positive")
	}
	return nil
}
