package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string
	LogLevel string

	RegistryPath  string
	DetailProfile string
	ReportDir     string

	AuditLogPath string
	AuditDSN     string

	PolicyEnabled   bool
	PolicyPath      string
	ReviewThreshold float64

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTLSeconds int

	CaseCSVPath string
	CaseColumn  string
	CategoryDir string
	CrossTabDir string
	CSVEncoding string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:        addr,
		LogLevel:        envDefault("LOG_LEVEL", "info"),
		RegistryPath:    os.Getenv("REGISTRY_PATH"),
		DetailProfile:   envDefault("DETAIL_PROFILE", "invoicing"),
		ReportDir:       envDefault("REPORT_DIR", "verification_reports"),
		AuditLogPath:    os.Getenv("AUDIT_LOG_PATH"),
		AuditDSN:        os.Getenv("AUDIT_DSN"),
		PolicyEnabled:   envBoolDefault("POLICY_ENABLED", true),
		PolicyPath:      os.Getenv("POLICY_PATH"),
		ReviewThreshold: envFloatDefault("REVIEW_THRESHOLD", 0),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         envIntDefault("REDIS_DB", 0),
		CacheTTLSeconds: envIntDefault("CACHE_TTL_SECONDS", 3600),
		CaseCSVPath:     envDefault("CASE_CSV_PATH", "patent_cases.csv"),
		CaseColumn:      envDefault("CASE_COLUMN", "公司案號"),
		CategoryDir:     envDefault("CATEGORY_DIR", "category_indexes"),
		CrossTabDir:     envDefault("CROSSTAB_DIR", "cross_analysis"),
		CSVEncoding:     envDefault("CSV_ENCODING", "utf-8"),
	}
}

func (c Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func envFloatDefault(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}
