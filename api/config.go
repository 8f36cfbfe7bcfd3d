package api

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

var DefaultConfig = Config{
	DSN:         "reports.db",
	Port:        8080,
	Debounce:    300 * time.Millisecond,
	CacheTTL:    5 * time.Minute,
	Metrics:     true,
	SessionIdle: 30 * time.Minute,
	Retention:   30 * 24 * time.Hour,
}

func NewConfig(dsn string) Config {
	n := DefaultConfig
	n.DSN = dsn
	return n
}

type Config struct {
	// DSN of the sqlite database, ":memory:" for a throwaway database.
	DSN string
	// Catalog is a YAML or JSON catalog file replacing the built in one.
	Catalog    string
	LogLevel   string
	DBLogLevel string
	Port       int
	Metrics    bool

	// Debounce is the quiet period before filter edits are persisted.
	Debounce time.Duration
	// CacheTTL is how long pipeline results are cached, 0 disables the cache.
	CacheTTL time.Duration
	// SessionIdle is how long an unused report session stays open, 0 keeps
	// sessions until shutdown.
	SessionIdle time.Duration
	// Retention is how long soft deleted reports are kept, 0 keeps them forever.
	Retention time.Duration

	// Token, when set, is required as a bearer token on mutating requests.
	Token string
}

func PrintableSecret(secret string) string {
	if len(secret) == 0 {
		return "<nil>"
	} else if len(secret) > 30 {
		sum := md5.Sum([]byte(secret))
		hash := hex.EncodeToString(sum[:])
		return fmt.Sprintf("md5(%s),length=%d", hash[0:8], len(secret))
	} else if len(secret) > 16 {
		return fmt.Sprintf("%s****%s", secret[0:1], secret[len(secret)-2:])
	} else if len(secret) > 10 {
		return fmt.Sprintf("****%s", secret[len(secret)-1:])
	}
	return "****"
}

// readEnv resolves val from the environment when it names a set variable.
func readEnv(val string) string {
	if v := os.Getenv(val); v != "" {
		return v
	}
	return val
}

func (c Config) ReadEnv() Config {
	clone := c
	clone.DSN = readEnv(clone.DSN)
	if clone.DSN == "REPORTS_DB" {
		clone.DSN = ""
	}
	clone.Catalog = readEnv(clone.Catalog)
	clone.LogLevel = readEnv(clone.LogLevel)
	clone.DBLogLevel = readEnv(clone.DBLogLevel)
	clone.Token = readEnv(clone.Token)
	if clone.Token == "REPORTS_TOKEN" {
		clone.Token = ""
	}
	return clone
}

// Properties returns the settings the context properties layer reads.
func (c Config) Properties() map[string]string {
	props := map[string]string{
		"reports.filters.debounce": c.Debounce.String(),
		"reports.cache.ttl":        c.CacheTTL.String(),
		"reports.metrics":          strconv.FormatBool(c.Metrics),
	}
	if c.DBLogLevel != "" {
		props["db.log.level"] = c.DBLogLevel
	}
	return props
}

func (c Config) String() string {
	s := fmt.Sprintf("port=%d log=%v db-log=%v debounce=%v cache-ttl=%v session-idle=%v retention=%v metrics=%v token=%s",
		c.Port, c.LogLevel, c.DBLogLevel, c.Debounce, c.CacheTTL, c.SessionIdle, c.Retention, c.Metrics, PrintableSecret(c.Token))
	if c.Catalog != "" {
		s = fmt.Sprintf("catalog=%s ", c.Catalog) + s
	}
	if dsn, err := url.Parse(c.DSN); err == nil {
		s = fmt.Sprintf("dsn=%s ", dsn.Redacted()) + s
	}
	return s
}
