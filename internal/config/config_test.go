package config

import (
	"testing"
	"time"

	"rps_arena/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 600*time.Second, cfg.RevealWindow)
	assert.Equal(t, uint64(10), cfg.FeePercent)

	s := cfg.Settings()
	assert.Equal(t, domain.Account("treasury"), s.Treasury)
	assert.Equal(t, domain.Account("burn"), s.Burn)
	assert.Equal(t, time.Hour, cfg.WeeklyInterval)
}

func TestFromViperOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REVEAL_WINDOW", "90s")
	t.Setenv("FEE_PERCENT", "5")
	t.Setenv("APP_PORT", "9000")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.RevealWindow)
	assert.Equal(t, uint64(5), cfg.FeePercent)
	assert.Equal(t, "9000", cfg.AppPort)
}

func TestFromViperRejects(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := FromViper(newViper())
		var cfgErr *Error
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "JWT_SECRET", cfgErr.Key)
	})

	t.Run("fee above 100", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("FEE_PERCENT", "101")
		_, err := FromViper(newViper())
		assert.Error(t, err)
	})

	for _, tc := range []struct{ key, value string }{
		{"TREASURY_ACCOUNT", "player:alice"},
		{"TREASURY_ACCOUNT", "escrow:0102030405060708"},
		{"BURN_ACCOUNT", "weekly:2024-04-29"},
		{"BURN_ACCOUNT", "treasury"},
	} {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv(tc.key, tc.value)
			_, err := FromViper(newViper())
			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.key, cfgErr.Key)
		})
	}
}
