package bootstrap

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
service:
  http_port: 8181
  public_base_url: https://nodrystarts.com
dependencies:
  postgres_url: postgres://file
mail:
  transport: log
investor:
  token_window: 24h
  usage_limit: 5
rate_limits:
  rfq_per_window: 2
`)
	t.Setenv("GRPC_PORT", "9191")
	t.Setenv("INVESTOR_TOKEN_USAGE_LIMIT", "4")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 8181, cfg.HTTPPort)
	require.Equal(t, 9191, cfg.GRPCPort)
	require.Equal(t, "https://nodrystarts.com", cfg.PublicBaseURL)
	require.Equal(t, "postgres://file", cfg.DatabaseURL)
	require.Equal(t, 24*time.Hour, cfg.TokenWindow)
	require.Equal(t, 4, cfg.TokenUsageLimit)
	require.Equal(t, 2, cfg.RFQLimit)
	require.Equal(t, 10, cfg.LeadLimit)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "investor", cfg.ArtifactCategory)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://env")
	t.Setenv("MAIL_TRANSPORT", "log")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "postgres://env", cfg.DatabaseURL)
	require.Equal(t, 48*time.Hour, cfg.TokenWindow)
	require.Equal(t, 3, cfg.TokenUsageLimit)
	require.Equal(t, "local", cfg.StorageBackend)
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "missing database", body: "mail:\n  transport: log\n"},
		{name: "smtp without admin email", body: "dependencies:\n  postgres_url: postgres://x\nmail:\n  transport: smtp\n  smtp_host: mail\n"},
		{name: "smtp without host", body: "dependencies:\n  postgres_url: postgres://x\nmail:\n  admin_email: sales@nodrystarts.com\n"},
		{name: "unknown storage", body: "dependencies:\n  postgres_url: postgres://x\nmail:\n  transport: log\nstorage:\n  backend: ftp\n"},
		{name: "s3 without bucket", body: "dependencies:\n  postgres_url: postgres://x\nmail:\n  transport: log\nstorage:\n  backend: s3\n"},
		{name: "bad duration", body: "dependencies:\n  postgres_url: postgres://x\nmail:\n  transport: log\ninvestor:\n  token_window: soon\n"},
		{name: "strict jwt without keys", body: "dependencies:\n  postgres_url: postgres://x\nmail:\n  transport: log\n", env: map[string]string{"JWT_ALLOW_EPHEMERAL": "false"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(writeConfig(t, tc.body))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "service: [unterminated"))
	require.Error(t, err)
}

func TestRootLoggerAttachesServiceID(t *testing.T) {
	var buf bytes.Buffer
	newRootLogger(&buf, "site-backend").With("module", "application").Info("ready")

	line := buf.String()
	require.Equal(t, 1, strings.Count(line, `"service":"site-backend"`), line)
	require.Contains(t, line, `"module":"application"`)
}
