package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Debug().Msg("hidden")
	log.Info().Str("page", "index").Msg("Rendered page")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "index", entry["page"])
	assert.Equal(t, "Rendered page", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNew_Dev(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)

	log.Debug().Str("field", "pages").Msg("resolved build config")

	assert.Contains(t, buf.String(), "resolved build config")
	assert.Contains(t, buf.String(), "field=pages")
}
