package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "https://r.jina.ai", cfg.Scrape.ReaderBaseURL)
	require.Equal(t, 30*time.Second, cfg.ScrapeTimeout())
	require.Equal(t, time.Duration(0), cfg.ScrapeDelay())
	require.Equal(t, 30*time.Second, cfg.KnowledgeTimeout())
	require.True(t, cfg.Logging.Development)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
scrape:
  reader_base_url: "https://reader.internal"
  delay_ms: 250
knowledge:
  base_url: "http://kb.internal:8082"
  token: "sekrit"
logging:
  development: false
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "https://reader.internal", cfg.Scrape.ReaderBaseURL)
	require.Equal(t, 250*time.Millisecond, cfg.ScrapeDelay())
	require.Equal(t, "sekrit", cfg.Knowledge.Token)
	require.False(t, cfg.Logging.Development)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:    ServerConfig{Port: 8080},
			Scrape:    ScrapeConfig{ReaderBaseURL: "https://r.jina.ai", TimeoutSeconds: 30},
			Knowledge: KnowledgeConfig{BaseURL: "http://kb:8082", TimeoutSeconds: 30},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "missing reader base",
			mutate:  func(c *Config) { c.Scrape.ReaderBaseURL = "" },
			wantErr: "reader_base_url",
		},
		{
			name:    "missing kb base",
			mutate:  func(c *Config) { c.Knowledge.BaseURL = "" },
			wantErr: "knowledge.base_url",
		},
		{
			name:    "auth without key",
			mutate:  func(c *Config) { c.Auth.Enabled = true },
			wantErr: "auth.api_key",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
