package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes Validate; tests mutate one field
// at a time.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Database.User = "catmatch"
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad server mode", func(c *Config) { c.Server.Mode = "production" }, "server.mode"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"missing db user", func(c *Config) { c.Database.User = "" }, "database.user"},
		{"db port out of range", func(c *Config) { c.Database.Port = 0 }, "database.port"},
		{"zero max conns", func(c *Config) { c.Database.MaxConns = 0 }, "database.max_conns"},
		{"redis enabled without addr", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Addr = ""
		}, "redis.addr"},
		{"no kafka brokers", func(c *Config) { c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"missing kafka group", func(c *Config) { c.Kafka.GroupID = "" }, "kafka.group_id"},
		{"opensearch enabled without addresses", func(c *Config) {
			c.OpenSearch.Enabled = true
			c.OpenSearch.Addresses = nil
		}, "opensearch.addresses"},
		{"milvus without embedding", func(c *Config) { c.Milvus.Enabled = true }, "must match"},
		{"embedding without base url", func(c *Config) {
			c.Milvus.Enabled = true
			c.Embedding.Enabled = true
			c.Embedding.BaseURL = ""
		}, "embedding.base_url"},
		{"invalid matching override", func(c *Config) { c.Matching.SemanticGate = 1.5 }, "matching"},
		{"zero worker concurrency", func(c *Config) { c.Worker.Concurrency = 0 }, "worker.concurrency"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "text" }, "log.format"},
		{"missing tenant header", func(c *Config) { c.Multitenancy.TenantHeader = "" }, "tenant_header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantSub),
				"error %q should mention %q", err.Error(), tt.wantSub)
		})
	}
}

func TestMatchingConfigToParamsDefaults(t *testing.T) {
	var m MatchingConfig
	p := m.ToParams()
	assert.Equal(t, 5, p.TopN)
	assert.Equal(t, 0.8, p.SemanticGate)
	require.NoError(t, p.Validate())
}

func TestMatchingConfigToParamsOverrides(t *testing.T) {
	m := MatchingConfig{TopN: 10, SemanticGate: 0.9, SearchLimit: 50}
	p := m.ToParams()
	assert.Equal(t, 10, p.TopN)
	assert.Equal(t, 0.9, p.SemanticGate)
	assert.Equal(t, 50, p.SearchLimit)
	// Untouched fields keep their defaults.
	assert.Equal(t, 1.0, p.KeyExactScore)
}
