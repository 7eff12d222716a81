package config_test

import (
	"testing"
	"time"

	"github.com/DeafMist/score-inspector/internal/config"
	"github.com/stretchr/testify/require"
)

var inspectEnv = []string{
	"ELASTICSEARCH_ADDR", "ELASTICSEARCH_INDEX", "INSPECT_DOC_TYPE", "INSPECT_PREFERENCE",
	"INSPECT_TIMEOUT", "INSPECT_SCRIPT_FILE", "INSPECT_SCRIPT_DIR", "INSPECT_FIELD_SCRIPTS",
	"INSPECT_QUERY_FILE", "INSPECT_USE_SCRIPT", "INSPECT_JOIN_OP", "INSPECT_FORMAT",
	"INSPECT_BIND_ADDR", "INSPECT_CACHE_TTL", "INSPECT_CACHE_CAPACITY",
}

func clearEnv(t *testing.T) {
	for _, key := range inspectEnv {
		t.Setenv(key, "")
	}
}

func TestLoadInspectDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadInspect()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:39201", cfg.ElasticsearchAddr)
	require.Equal(t, "buzzscreen-production-2018-05-21", cfg.ElasticsearchIndex)
	require.Equal(t, "content_campaign", cfg.DocType)
	require.Equal(t, "_local", cfg.Preference)
	require.Equal(t, time.Duration(0), cfg.Timeout)
	require.Equal(t, []string{"v1_3_c.painless"}, cfg.ScriptFiles)
	require.Empty(t, cfg.ScriptDir)
	require.Empty(t, cfg.FieldScripts)
	require.Equal(t, "debug_es_query.json", cfg.QueryFile)
	require.True(t, cfg.UseScript)
	require.Equal(t, "*", cfg.JoinOp)
	require.Equal(t, config.FormatText, cfg.Format)
	require.Equal(t, "127.0.0.1:8090", cfg.BindAddr)
	require.Equal(t, time.Duration(0), cfg.CacheTTL)
	require.Equal(t, 32, cfg.CacheCapacity)
}

func TestLoadInspectOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ELASTICSEARCH_ADDR", "http://localhost:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "buzzscreen-development-2017-10-24")
	t.Setenv("INSPECT_DOC_TYPE", "")
	t.Setenv("INSPECT_TIMEOUT", "30s")
	t.Setenv("INSPECT_SCRIPT_FILE", "v1_ctr.painless, v1_rec.painless")
	t.Setenv("INSPECT_FIELD_SCRIPTS", "ctr=v1_ctr.painless,broken,rec=v1_rec.painless")
	t.Setenv("INSPECT_QUERY_FILE", "q.json")
	t.Setenv("INSPECT_USE_SCRIPT", "false")
	t.Setenv("INSPECT_JOIN_OP", "+")
	t.Setenv("INSPECT_FORMAT", "html")
	t.Setenv("INSPECT_BIND_ADDR", ":9999")
	t.Setenv("INSPECT_CACHE_TTL", "45s")
	t.Setenv("INSPECT_CACHE_CAPACITY", "4")

	cfg, err := config.LoadInspect()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "buzzscreen-development-2017-10-24", cfg.ElasticsearchIndex)
	require.Equal(t, "content_campaign", cfg.DocType)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.Equal(t, []string{"v1_ctr.painless", "v1_rec.painless"}, cfg.ScriptFiles)
	require.Equal(t, map[string]string{"ctr": "v1_ctr.painless", "rec": "v1_rec.painless"}, cfg.FieldScripts)
	require.Equal(t, "q.json", cfg.QueryFile)
	require.False(t, cfg.UseScript)
	require.Equal(t, "+", cfg.JoinOp)
	require.Equal(t, config.FormatHTML, cfg.Format)
	require.Equal(t, ":9999", cfg.BindAddr)
	require.Equal(t, 45*time.Second, cfg.CacheTTL)
	require.Equal(t, 4, cfg.CacheCapacity)
}

func TestLoadInspectRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "join op", key: "INSPECT_JOIN_OP", val: "-"},
		{name: "format", key: "INSPECT_FORMAT", val: "pdf"},
		{name: "capacity", key: "INSPECT_CACHE_CAPACITY", val: "-1"},
		{name: "ttl", key: "INSPECT_CACHE_TTL", val: "-5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := config.LoadInspect()
			require.Error(t, err)
		})
	}
}

func TestValidateRequiresScriptSource(t *testing.T) {
	clearEnv(t)
	cfg, err := config.LoadInspect()
	require.NoError(t, err)

	cfg.ScriptFiles = nil
	require.Error(t, cfg.Validate())

	cfg.ScriptDir = "es/script/v4_a"
	require.NoError(t, cfg.Validate())

	cfg.ScriptDir = ""
	cfg.UseScript = false
	require.NoError(t, cfg.Validate())
}
