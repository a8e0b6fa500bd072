package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPLoggerCarriesServiceOnce(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)).With("service", "site-backend"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	httpLogger().Info("request handled")

	line := strings.TrimSpace(buf.String())
	assert.Equal(t, 1, strings.Count(line, `"service":`), line)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "site-backend", entry["service"])
	assert.Equal(t, "http", entry["module"])
	assert.Equal(t, "adapter", entry["layer"])
}
