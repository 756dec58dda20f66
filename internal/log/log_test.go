package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, parseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))

	assert.True(t, ValidLevel("error"))
	assert.False(t, ValidLevel("nonsense"))
}

func TestComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "debug")
	t.Cleanup(func() { SetOutput(os.Stderr, "info") })

	Assembler.Info().Int("inputs", 2).Msg("assembled")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "assembler", line["component"])
	assert.Equal(t, "assembled", line["message"])
	assert.EqualValues(t, 2, line["inputs"])
}

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saplingtx.log")
	require.NoError(t, Init("info", true, path))
	t.Cleanup(func() { _ = Init("info", false, "") })

	Keys.Info().Msg("derived")
	Keys.Debug().Msg("hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"keys"`)
	assert.NotContains(t, string(data), "hidden")
}
