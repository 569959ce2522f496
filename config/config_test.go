package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{JWTSecret: "0123456789abcdef0123"},
		Clinic: ClinicConfig{
			Timezone:   "Asia/Seoul",
			LockBefore: 10 * time.Minute,
			MoveBefore: 30 * time.Minute,
		},
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_ShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"
	assert.Error(t, cfg.Validate())
}

func TestValidate_BadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidate_MoveWindowMustExceedLockWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Clinic.MoveBefore = 10 * time.Minute
	assert.Error(t, cfg.Validate())
}

func TestValidate_UnknownTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.Clinic.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}

func TestClinicConfig_Location(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "Asia/Seoul", cfg.Clinic.Location().String())

	cfg.Clinic.Timezone = "nope"
	assert.Equal(t, time.UTC, cfg.Clinic.Location())
}
