package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"json info", Config{Level: "info", Format: "json"}, false},
		{"console debug", Config{Level: "debug", Format: "console"}, false},
		{"warn and error levels", Config{Level: "warn", Format: "json"}, false},
		{"unknown level", Config{Level: "verbose", Format: "json"}, true},
		{"unknown format", Config{Level: "info", Format: "logfmt"}, true},
		{"empty", Config{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "debug", Format: "json"})
	require.NoError(t, err)
	defer func() { _ = logger.Sync() }()

	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = New(Config{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	_, err = New(Config{Level: "nope", Format: "json"})
	assert.Error(t, err)
}
