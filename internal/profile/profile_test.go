package profile

import (
	"os"
	"testing"
	"time"
)

func TestCacheDefaults(t *testing.T) {
	clearCacheEnvVars(t)

	profile := &Profile{}
	profile.FromEnv()

	if profile.RedisAddr != "" {
		t.Errorf("RedisAddr: expected empty, got %q", profile.RedisAddr)
	}
	if profile.RedisPrefix != "slider:" {
		t.Errorf("RedisPrefix: expected %q, got %q", "slider:", profile.RedisPrefix)
	}
	if profile.PayloadTTL != 600*time.Second {
		t.Errorf("PayloadTTL: expected 600s, got %v", profile.PayloadTTL)
	}
	if profile.PayloadJitter != 60*time.Second {
		t.Errorf("PayloadJitter: expected 60s, got %v", profile.PayloadJitter)
	}
	if profile.LockTTL != 10*time.Second {
		t.Errorf("LockTTL: expected 10s, got %v", profile.LockTTL)
	}
}

func TestCacheFromEnv(t *testing.T) {
	clearCacheEnvVars(t)

	os.Setenv("SLIDER_REDIS_ADDR", "localhost:6379")
	os.Setenv("SLIDER_REDIS_DB", "3")
	os.Setenv("SLIDER_CACHE_PAYLOAD_TTL", "5m")
	os.Setenv("SLIDER_CACHE_LOCK_TTL", "2s")

	profile := &Profile{}
	profile.FromEnv()

	if profile.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr: expected %q, got %q", "localhost:6379", profile.RedisAddr)
	}
	if profile.RedisDB != 3 {
		t.Errorf("RedisDB: expected 3, got %d", profile.RedisDB)
	}
	if profile.PayloadTTL != 5*time.Minute {
		t.Errorf("PayloadTTL: expected 5m, got %v", profile.PayloadTTL)
	}
	if profile.LockTTL != 2*time.Second {
		t.Errorf("LockTTL: expected 2s, got %v", profile.LockTTL)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	clearCacheEnvVars(t)

	os.Setenv("SLIDER_CACHE_PAYLOAD_TTL", "not-a-duration")

	profile := &Profile{}
	profile.FromEnv()

	if profile.PayloadTTL != 600*time.Second {
		t.Errorf("PayloadTTL: expected default 600s, got %v", profile.PayloadTTL)
	}
}

func TestValidateSQLiteDSN(t *testing.T) {
	clearCacheEnvVars(t)

	profile := &Profile{
		Mode:   "dev",
		Data:   t.TempDir(),
		Driver: "sqlite",
	}
	profile.FromEnv()
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if profile.DSN == "" {
		t.Error("DSN: expected default sqlite DSN, got empty")
	}
}

func TestValidateJitterBound(t *testing.T) {
	clearCacheEnvVars(t)

	profile := &Profile{
		Mode:          "dev",
		Data:          t.TempDir(),
		Driver:        "sqlite",
		PayloadTTL:    10 * time.Second,
		PayloadJitter: 20 * time.Second, // larger than TTL, must be clamped
		LockTTL:       time.Second,
	}
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if profile.PayloadJitter >= profile.PayloadTTL {
		t.Errorf("PayloadJitter: expected clamp below TTL, got %v", profile.PayloadJitter)
	}
}

func TestIsDev(t *testing.T) {
	tests := []struct {
		mode string
		want bool
	}{
		{"dev", true},
		{"demo", true},
		{"prod", false},
	}
	for _, tt := range tests {
		profile := &Profile{Mode: tt.mode}
		if got := profile.IsDev(); got != tt.want {
			t.Errorf("IsDev() in mode %q = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func clearCacheEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SLIDER_REDIS_ADDR",
		"SLIDER_REDIS_PASSWORD",
		"SLIDER_REDIS_DB",
		"SLIDER_REDIS_PREFIX",
		"SLIDER_CACHE_PAYLOAD_TTL",
		"SLIDER_CACHE_PAYLOAD_JITTER",
		"SLIDER_CACHE_LOCK_TTL",
	} {
		key := key
		old, ok := os.LookupEnv(key)
		os.Unsetenv(key)
		if ok {
			t.Cleanup(func() { os.Setenv(key, old) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
	}
}
