package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"lifeline/internal/platform/config"
)

func TestNewHonorsConfiguredLevel(t *testing.T) {
	tests := []struct {
		level       string
		debugLogged bool
		warnLogged  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, false},
		{"", false, true},
		{"verbose", false, true},
	}
	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			log := New(config.LogConfig{Level: tt.level})
			ctx := context.Background()
			assert.Equal(t, tt.debugLogged, log.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.warnLogged, log.Enabled(ctx, slog.LevelWarn))
			assert.True(t, log.Enabled(ctx, slog.LevelError))
		})
	}
}
