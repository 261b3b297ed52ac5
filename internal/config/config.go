package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime options shared by the CLI commands and the server.
type Config struct {
	Host            string        `yaml:"host" validate:"required"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	BaseURL         string        `yaml:"base_url" validate:"required,url"`
	UserInfoURL     string        `yaml:"user_info_url" validate:"required,url"`
	CookieFile      string        `yaml:"cookie_file"`
	Cookie          string        `yaml:"cookie"`
	UserInfoFile    string        `yaml:"user_info_file"`
	SaveUserInfo    bool          `yaml:"save_user_info"`
	ConversationID  string        `yaml:"conversation_id"`
	Model           string        `yaml:"model" validate:"required"`
	WebSearch       bool          `yaml:"web_search"`
	LogLevel        string        `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	ChatTimeout     time.Duration `yaml:"chat_timeout"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout"`
	TokenizerDir    string        `yaml:"tokenizer_dir"`
	SessionMaxAge   time.Duration `yaml:"session_max_age"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" validate:"gt=0"`
	EnableMetrics   bool          `yaml:"enable_metrics"`
}

// Defaults returns baseline configuration.
func Defaults() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8000,
		BaseURL:         "https://yuanbao.tencent.com/api/chat",
		UserInfoURL:     "https://yuanbao.tencent.com/api/getuserinfo",
		CookieFile:      ".env",
		UserInfoFile:    "user.json",
		SaveUserInfo:    true,
		Model:           "deep_seek_v3",
		LogLevel:        "info",
		ChatTimeout:     5 * time.Minute,
		ProbeTimeout:    15 * time.Second,
		SessionMaxAge:   24 * time.Hour,
		CleanupInterval: 15 * time.Minute,
		EnableMetrics:   true,
	}
}

// ApplyEnv overlays environment variables onto the config before flag parsing.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("YUANBAO_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("YUANBAO_USERINFO_URL"); v != "" {
		c.UserInfoURL = v
	}
	if v := os.Getenv("YUANBAO_COOKIE_FILE"); v != "" {
		c.CookieFile = v
	}
	if v := os.Getenv("YUANBAO_USER_FILE"); v != "" {
		c.UserInfoFile = v
	}
	if v := os.Getenv("SAVE_USER_INFO"); v != "" {
		c.SaveUserInfo = isTrue(v)
	}
	if v := os.Getenv("YUANBAO_CONVERSATION_ID"); v != "" {
		c.ConversationID = v
	}
	if v := os.Getenv("YUANBAO_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("YUANBAO_WEB_SEARCH"); v != "" {
		c.WebSearch = isTrue(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CHAT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ChatTimeout = d
		}
	}
	if v := os.Getenv("PROBE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ProbeTimeout = d
		}
	}
	if v := os.Getenv("TOKENIZER_DIR"); v != "" {
		c.TokenizerDir = v
	}
	if v := os.Getenv("SESSION_MAX_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SessionMaxAge = d
		}
	}
	if v := os.Getenv("CLEANUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CleanupInterval = d
		}
	}
	if v := os.Getenv("ENABLE_METRICS"); v != "" {
		c.EnableMetrics = isTrue(v)
	}
}

func isTrue(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// Validate checks the merged configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Parse builds config from env + flags. Flags override env, which override
// the config file, which overrides defaults.
func Parse(args []string) (Config, error) {
	cfg, _, err := ParseFlags("yuanbao2api", args, nil)
	return cfg, err
}

// ParseFlags is Parse for a named command. extra registers command-specific
// flags on the same set; the positional arguments left after parsing are returned.
func ParseFlags(name string, args []string, extra func(fs *flag.FlagSet)) (Config, []string, error) {
	cfg := Defaults()

	configPath := lookupFlag(args, "config")
	if configPath == "" {
		configPath = os.Getenv("CONFIG_FILE")
	}
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return cfg, nil, err
		}
	}

	// Auto-load .env if present
	if loaded, err := loadDotEnv(".env"); err != nil {
		return cfg, nil, fmt.Errorf("load .env: %w", err)
	} else if !loaded {
		fmt.Fprintln(os.Stderr, "[yuanbao2api] .env not found; using environment variables and flags")
	}

	cfg.ApplyEnv()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	fs.String("config", configPath, "YAML config file")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "listen host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Yuanbao chat endpoint prefix")
	fs.StringVar(&cfg.UserInfoURL, "userinfo-url", cfg.UserInfoURL, "Yuanbao account-info endpoint")
	fs.StringVar(&cfg.CookieFile, "cookie-file", cfg.CookieFile, "file holding YUANBAO_COOKIE lines")
	fs.StringVar(&cfg.Cookie, "cookie", cfg.Cookie, "cookie tried before the cookie file")
	fs.StringVar(&cfg.UserInfoFile, "user-file", cfg.UserInfoFile, "where to save account info")
	fs.BoolVar(&cfg.SaveUserInfo, "save-user", cfg.SaveUserInfo, "save account info of the selected cookie")
	fs.StringVar(&cfg.ConversationID, "conversation", cfg.ConversationID, "Yuanbao conversation id")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "model selector (deep_seek_v3, deep_seek_r1, hunyuan, hunyuan_t1)")
	fs.BoolVar(&cfg.WebSearch, "search", cfg.WebSearch, "enable internet search")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug,info,warn,error)")
	fs.DurationVar(&cfg.ChatTimeout, "chat-timeout", cfg.ChatTimeout, "chat request timeout")
	fs.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "cookie probe timeout")
	fs.StringVar(&cfg.TokenizerDir, "tokenizer-dir", cfg.TokenizerDir, "local tokenizer directory (empty disables token counting)")
	fs.DurationVar(&cfg.SessionMaxAge, "session-max-age", cfg.SessionMaxAge, "conversation tracking max age")
	fs.DurationVar(&cfg.CleanupInterval, "cleanup-interval", cfg.CleanupInterval, "conversation cleanup interval")
	fs.BoolVar(&cfg.EnableMetrics, "metrics", cfg.EnableMetrics, "serve Prometheus metrics on /metrics")

	if extra != nil {
		extra(fs)
	}

	if err := fs.Parse(args); err != nil {
		// propagate flag errors to caller for CLI to display
		return cfg, nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	return cfg, fs.Args(), nil
}

// LoadFile overlays a YAML config file.
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// lookupFlag finds -name/--name value or -name=value in args without parsing them.
func lookupFlag(args []string, name string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		trimmed := strings.TrimLeft(a, "-")
		if trimmed == a {
			continue
		}
		if v, ok := strings.CutPrefix(trimmed, name+"="); ok {
			return v
		}
		if trimmed == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// loadDotEnv loads KEY=VALUE pairs from a .env file into process env without
// overriding variables that are already set.
// Returns true if file was found and loaded, false if not present.
func loadDotEnv(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		val = strings.Trim(val, `"'`)
		if key == "" {
			continue
		}
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, val)
		}
	}
	if err := scanner.Err(); err != nil {
		return true, err
	}
	return true, nil
}
