package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes every environment variable, e.g. CONTACT_HTTP_PORT.
const EnvPrefix = "CONTACT"

// SMTPConfig groups the notification mail settings. An empty Host
// disables notifications.
type SMTPConfig struct {
	Host     string `mapstructure:"smtp_host"`
	Port     int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"smtp_username"`
	Password string `mapstructure:"smtp_password"`
	From     string `mapstructure:"mail_from"`
	To       string `mapstructure:"mail_to"`
}

// TurnstileConfig groups the Cloudflare Turnstile settings.
type TurnstileConfig struct {
	SiteKey   string `mapstructure:"turnstile_site_key"`
	Secret    string `mapstructure:"turnstile_secret"`
	TestToken string `mapstructure:"turnstile_test_token"`
}

// Config is the full service configuration.
type Config struct {
	Env      string `mapstructure:"env"` // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"`
	HTTPPort int    `mapstructure:"http_port"`

	StoreDriver      string        `mapstructure:"store_driver"` // "memory" | "mysql"
	MySQLDSN         string        `mapstructure:"mysql_dsn"`
	DBConnectTimeout time.Duration `mapstructure:"db_connect_timeout"`

	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`

	RateLimitPerMinute float64  `mapstructure:"rate_limit_per_minute"`
	RateLimitIPLookups []string `mapstructure:"rate_limit_ip_lookups"`
	AllowedHosts       []string `mapstructure:"allowed_hosts"`

	StaticDir  string `mapstructure:"static_dir"`
	WASMPath   string `mapstructure:"wasm_path"`
	ExecJSPath string `mapstructure:"wasm_exec_path"`

	Turnstile TurnstileConfig `mapstructure:",squash"`
	SMTP      SMTPConfig      `mapstructure:",squash"`
}

// Release reports whether the service runs in production mode.
func (c Config) Release() bool { return c.Env == "prod" }

// Dump returns the config as indented JSON with secrets redacted.
func (c Config) Dump() string {
	cp := c
	if cp.MySQLDSN != "" {
		cp.MySQLDSN = "[redacted]"
	}
	if cp.SMTP.Password != "" {
		cp.SMTP.Password = "[redacted]"
	}
	if cp.Turnstile.Secret != "" {
		cp.Turnstile.Secret = "[redacted]"
	}
	b, _ := json.MarshalIndent(cp, "", "  ")
	return string(b)
}

// Load merges defaults, config.* files, .env, environment variables and
// explicitly set flags. Later sources win.
func Load(logger *zap.Logger, args []string) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded .env file")
	}

	fs := pflag.NewFlagSet("contact", pflag.ContinueOnError)
	fs.String("env", "dev", `Runtime environment "dev"|"prod"`)
	fs.String("log_level", "debug", "Log level")
	fs.Int("http_port", 8080, "HTTP port")
	fs.String("store_driver", "memory", `Contact store "memory"|"mysql"`)
	fs.String("mysql_dsn", "", "MySQL DSN, e.g. user:pass@tcp(localhost:3306)/petshop?parseTime=true")
	fs.String("db_connect_timeout", "10s", "Startup timeout for the DB connection")
	fs.String("retention", "336h", "How long stored contacts are kept in memory (0 keeps forever)")
	fs.String("cleanup_interval", "24h", "How often expired contacts are swept")
	fs.Float64("rate_limit_per_minute", 10, "Max contact submissions per minute per IP (0 disables)")
	fs.String("rate_limit_ip_lookups", `["RemoteAddr","X-Forwarded-For","X-Real-IP"]`, "JSON array of client address sources, first match wins")
	fs.String("allowed_hosts", "", `JSON array of allowed hosts, e.g. '["example.org"]' (empty allows all)`)
	fs.String("static_dir", "", "Directory served under /static")
	fs.String("wasm_path", "", "URL of the guard WebAssembly module (empty disables)")
	fs.String("wasm_exec_path", "/static/wasm_exec.js", "URL of wasm_exec.js")
	fs.String("turnstile_site_key", "", "Cloudflare Turnstile site key")
	fs.String("turnstile_secret", "", "Cloudflare Turnstile secret (empty disables the check)")
	fs.String("turnstile_test_token", "", "Token accepted without verification outside prod")
	fs.String("smtp_host", "", "SMTP host for notifications (empty disables)")
	fs.Int("smtp_port", 587, "SMTP port")
	fs.String("smtp_username", "", "SMTP username")
	fs.String("smtp_password", "", "SMTP password")
	fs.String("mail_from", "", "Notification sender address")
	fs.String("mail_to", "", "Notification recipient address")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindEnv(f.Name)
		v.SetDefault(f.Name, f.DefValue)
	})

	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		b, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			continue
		}
		logger.Info("Loaded config file", zap.String("file", file))
	}

	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	if err := normalizeListKeys(v, "allowed_hosts", "rate_limit_ip_lookups"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalizeListKeys accepts JSON array strings for list keys.
func normalizeListKeys(v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		switch t := v.Get(key).(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				v.Set(key, []string{})
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []interface{}:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		}
	}
	return nil
}

func validate(cfg Config) error {
	var invalid []string
	if cfg.Env != "dev" && cfg.Env != "prod" {
		invalid = append(invalid, fmt.Sprintf("env must be dev or prod, got %q", cfg.Env))
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, fmt.Sprintf("http_port out of range: %d", cfg.HTTPPort))
	}
	switch cfg.StoreDriver {
	case "memory":
	case "mysql":
		if strings.TrimSpace(cfg.MySQLDSN) == "" {
			invalid = append(invalid, "store_driver=mysql requires mysql_dsn")
		}
	default:
		invalid = append(invalid, fmt.Sprintf("store_driver must be memory or mysql, got %q", cfg.StoreDriver))
	}
	if cfg.RateLimitPerMinute < 0 {
		invalid = append(invalid, "rate_limit_per_minute must not be negative")
	}
	for _, src := range cfg.RateLimitIPLookups {
		if src != "RemoteAddr" && !strings.HasPrefix(src, "X-") {
			invalid = append(invalid, fmt.Sprintf("rate_limit_ip_lookups: unknown source %q", src))
		}
	}
	if cfg.SMTP.Host != "" && (cfg.SMTP.From == "" || cfg.SMTP.To == "") {
		invalid = append(invalid, "smtp_host requires mail_from and mail_to")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(invalid, "; "))
	}
	return nil
}
