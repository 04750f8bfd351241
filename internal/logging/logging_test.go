package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/financeai/internal/logging"
	"github.com/nhle/financeai/internal/model"
)

func TestParseLevel(t *testing.T) {
	level, err := logging.ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	level, err = logging.ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	_, err = logging.ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriter(&buf, zerolog.WarnLevel)

	logger.Info().Msg("hidden")
	logger.Warn().Str("account", "alice@gmail.com").Msg("shown")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "financeai", entry["app"])
	assert.Equal(t, "alice@gmail.com", entry["account"])
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "financeai.log")

	logger, closer, err := logging.New(model.LogConfig{File: path, Level: "info"})
	require.NoError(t, err)
	logger.Info().Msg("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestNew_EmptyFileDiscards(t *testing.T) {
	_, closer, err := logging.New(model.LogConfig{})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
}
