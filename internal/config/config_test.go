package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, ":5001", cfg.AuthAddr)
	assert.Equal(t, ":5002", cfg.CatalogAddr)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnMaxIdleTime)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Second, cfg.AuthVerifyTimeout)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestFromViper_RejectsUnknownDriver(t *testing.T) {
	_, err := FromViper(newViper(map[string]any{"DATABASE_DRIVER": "mysql"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER")
}

func TestFromViper_TrimsServiceURL(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{"AUTH_SERVICE_URL": "http://auth:5001/"}))
	require.NoError(t, err)
	assert.Equal(t, "http://auth:5001", cfg.AuthServiceURL)
}

func TestValidateAuth(t *testing.T) {
	cfg, err := FromViper(newViper(nil))
	require.NoError(t, err)

	err = cfg.ValidateAuth()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.ValidateAuth())

	cfg.JWTTTL = 0
	assert.Error(t, cfg.ValidateAuth())
}

func TestValidateCatalog(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{"APP_ENV": "Production"}))
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.NoError(t, cfg.ValidateCatalog())

	cfg.AuthServiceURL = "auth:5001"
	assert.Error(t, cfg.ValidateCatalog())

	cfg.AuthServiceURL = "http://auth:5001"
	cfg.AuthVerifyTimeout = 0
	assert.Error(t, cfg.ValidateCatalog())
}
