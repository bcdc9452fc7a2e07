package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")

	cfg, err := Load()
	assert.ErrorIs(t, err, ErrMissingSecret)
	assert.Nil(t, cfg)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test-secret", cfg.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "8000", cfg.ServerPort)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RESET_DB", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.ResetDB)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{SecretKey: "k", AccessTokenTTL: time.Minute}},
		{name: "missing secret", cfg: Config{AccessTokenTTL: time.Minute}, wantErr: true},
		{name: "zero ttl", cfg: Config{SecretKey: "k"}, wantErr: true},
		{name: "negative concurrency", cfg: Config{SecretKey: "k", AccessTokenTTL: time.Minute, HashConcurrency: -1}, wantErr: true},
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

func TestLoad_MalformedIntegerIsAnError(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "token ttl", key: "ACCESS_TOKEN_EXPIRE_MINUTES"},
		{name: "hash concurrency", key: "HASH_CONCURRENCY"},
		{name: "redis db", key: "REDIS_DB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SECRET_KEY", "test-secret")
			t.Setenv(tt.key, "abc")

			cfg, err := Load()
			assert.ErrorIs(t, err, ErrInvalidInt)
			assert.ErrorContains(t, err, tt.key)
			assert.Nil(t, cfg)
		})
	}
}
