package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Output formats understood by the renderers.
const (
	FormatText = "text"
	FormatHTML = "html"
)

// Common contains Elasticsearch parameters shared by every command.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Inspect holds configuration for one inspection run and for serve mode.
type Inspect struct {
	Common
	DocType    string
	Preference string
	Timeout    time.Duration

	ScriptFiles  []string
	ScriptDir    string
	FieldScripts map[string]string
	QueryFile    string
	UseScript    bool
	JoinOp       string

	Format string

	BindAddr      string
	CacheTTL      time.Duration
	CacheCapacity int
}

// LoadInspect builds an Inspect config from environment variables. The
// defaults point at a tunnelled production cluster, as the notebook did.
func LoadInspect() (*Inspect, error) {
	c := &Inspect{
		Common: Common{
			ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://localhost:39201"),
			ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "buzzscreen-production-2018-05-21"),
		},
		DocType:       getEnv("INSPECT_DOC_TYPE", "content_campaign"),
		Preference:    getEnv("INSPECT_PREFERENCE", "_local"),
		Timeout:       getDuration("INSPECT_TIMEOUT", "0s"),
		ScriptFiles:   splitAndTrim(getEnv("INSPECT_SCRIPT_FILE", "v1_3_c.painless")),
		ScriptDir:     getEnv("INSPECT_SCRIPT_DIR", ""),
		FieldScripts:  parsePairs(getEnv("INSPECT_FIELD_SCRIPTS", "")),
		QueryFile:     getEnv("INSPECT_QUERY_FILE", "debug_es_query.json"),
		UseScript:     getBool("INSPECT_USE_SCRIPT", true),
		JoinOp:        getEnv("INSPECT_JOIN_OP", "*"),
		Format:        getEnv("INSPECT_FORMAT", FormatText),
		BindAddr:      getEnv("INSPECT_BIND_ADDR", "127.0.0.1:8090"),
		CacheTTL:      getDuration("INSPECT_CACHE_TTL", "0s"),
		CacheCapacity: getInt("INSPECT_CACHE_CAPACITY", 32),
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks values that may also have been changed by flags.
func (c *Inspect) Validate() error {
	if strings.TrimSpace(c.QueryFile) == "" {
		return fmt.Errorf("INSPECT_QUERY_FILE must be set")
	}
	if c.UseScript && len(c.ScriptFiles) == 0 && c.ScriptDir == "" {
		return fmt.Errorf("INSPECT_SCRIPT_FILE or INSPECT_SCRIPT_DIR must be set when scripting is enabled")
	}
	if c.JoinOp != "+" && c.JoinOp != "*" {
		return fmt.Errorf("INSPECT_JOIN_OP must be + or *")
	}
	if c.Format != FormatText && c.Format != FormatHTML {
		return fmt.Errorf("INSPECT_FORMAT must be %s or %s", FormatText, FormatHTML)
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("INSPECT_CACHE_CAPACITY must be positive")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("INSPECT_CACHE_TTL cannot be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("INSPECT_TIMEOUT cannot be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parsePairs reads "name=path,name=path" lists.
func parsePairs(raw string) map[string]string {
	out := make(map[string]string)
	for _, part := range splitAndTrim(raw) {
		name, value, ok := strings.Cut(part, "=")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			continue
		}
		out[name] = value
	}
	return out
}
