package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "not-a-level")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("MAKKARA_ENVIRONMENT", "production")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())

	t.Setenv("MAKKARA_ENVIRONMENT", "development")
	assert.Equal(t, zerolog.DebugLevel, getLogLevel())
}

func TestComponentFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	l := New(zerolog.New(&buf)).
		WithField("component", "analyzer").
		WithError(errors.New("geocoder down"))

	l.Warn().Str("restaurant", "Kahvila Testi").Msg("candidate dropped")

	out := buf.String()
	assert.Contains(t, out, `"component":"analyzer"`)
	assert.Contains(t, out, `"error":"geocoder down"`)
	assert.Contains(t, out, `"restaurant":"Kahvila Testi"`)
}

func TestWithFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	New(zerolog.New(&buf)).
		WithFields(Fields{"provider": "lounaat", "mode": "week"}).
		Info().Msg("worker created")

	out := buf.String()
	assert.Contains(t, out, `"provider":"lounaat"`)
	assert.Contains(t, out, `"mode":"week"`)
}
