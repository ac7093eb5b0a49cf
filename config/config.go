package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// HTTP Server
	Port            string
	AllowedOrigins  []string
	RateLimitTokens int
	RateLimitWindow time.Duration
	TrustedProxies  []string

	// Logging
	LogLevel  string
	LogFormat string

	// Data files
	DebtCSVPath   string
	SpendCSVPath  string
	IncomeCSVPath string

	// Token cache (in-memory when RedisAddr is empty)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Agent bridge
	OrchAPIKey       string
	OrchInstanceURL  string
	OrchAgentEnvID   string
	IAMTokenURL      string
	TokenRefreshSkew time.Duration
	IAMTimeout       time.Duration
	AgentTimeout     time.Duration
}

// Load reads the environment, after merging a .env file if one exists.
// Variables already set in the environment win over the file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("PORT", "8000"),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		RateLimitTokens: getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		TrustedProxies:  getEnvList("TRUSTED_PROXIES", nil),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		DebtCSVPath:   getEnv("DEBT_CSV_PATH", "debt_data.csv"),
		SpendCSVPath:  getEnv("SPEND_CSV_PATH", "personal_expense_dataset.csv"),
		IncomeCSVPath: getEnv("INCOME_CSV_PATH", "student_income_2024.csv"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OrchAPIKey:       strings.TrimSpace(getEnv("ORCH_API_KEY", "")),
		OrchInstanceURL:  strings.TrimSpace(getEnv("ORCH_INSTANCE_URL", "https://dl.watson-orchestrate.ibm.com")),
		OrchAgentEnvID:   strings.TrimSpace(getEnv("ORCH_AGENT_ENV_ID", "")),
		IAMTokenURL:      getEnv("IAM_TOKEN_URL", "https://iam.cloud.ibm.com/identity/token"),
		TokenRefreshSkew: getEnvDuration("TOKEN_REFRESH_SKEW", 2*time.Minute),
		IAMTimeout:       getEnvDuration("IAM_TIMEOUT", 20*time.Second),
		AgentTimeout:     getEnvDuration("AGENT_TIMEOUT", 30*time.Second),
	}
}

// Validate returns every configuration problem in one error. Missing agent
// credentials are not an error: the chat endpoint reports them per request.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'json' or 'text'", c.LogFormat))
	}

	for name, path := range map[string]string{
		"DEBT_CSV_PATH":   c.DebtCSVPath,
		"SPEND_CSV_PATH":  c.SpendCSVPath,
		"INCOME_CSV_PATH": c.IncomeCSVPath,
	} {
		if path == "" {
			errs = append(errs, fmt.Sprintf("%s cannot be empty", name))
		}
	}

	for name, raw := range map[string]string{
		"ORCH_INSTANCE_URL": c.OrchInstanceURL,
		"IAM_TOKEN_URL":     c.IAMTokenURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("invalid %s '%s': must be an http(s) URL", name, raw))
		}
	}

	if c.RedisDB < 0 {
		errs = append(errs, fmt.Sprintf("invalid redis db %d: must be >= 0", c.RedisDB))
	}
	if c.RateLimitTokens < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitTokens))
	}
	if c.RateLimitWindow < time.Second {
		errs = append(errs, fmt.Sprintf("invalid rate limit window %v: must be at least 1 second", c.RateLimitWindow))
	}
	for _, proxy := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(proxy); err != nil && net.ParseIP(proxy) == nil {
			errs = append(errs, fmt.Sprintf("invalid trusted proxy '%s': must be an IP or CIDR", proxy))
		}
	}
	if c.TokenRefreshSkew < 0 {
		errs = append(errs, fmt.Sprintf("invalid token refresh skew %v: must not be negative", c.TokenRefreshSkew))
	}
	if c.IAMTimeout <= 0 || c.AgentTimeout <= 0 {
		errs = append(errs, "IAM_TIMEOUT and AGENT_TIMEOUT must be positive")
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if c.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
