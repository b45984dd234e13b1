package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zihaozhangmm/slider/internal/profile"
	"github.com/zihaozhangmm/slider/store"
	"github.com/zihaozhangmm/slider/store/db"
)

// NewTestingStore opens a store against a throwaway database and applies the
// latest schema. The driver defaults to sqlite; set SLIDER_TEST_DRIVER and
// SLIDER_TEST_DSN to run the suite against postgres.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	testProfile := getTestingProfile(t)
	driver, err := db.NewDBDriver(testProfile)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })

	ts := store.New(driver, testProfile)
	require.NoError(t, ts.Migrate(ctx))
	return ts
}

func getTestingProfile(t *testing.T) *profile.Profile {
	t.Helper()

	dataDir := t.TempDir()
	testProfile := &profile.Profile{
		Mode:          "prod",
		Data:          dataDir,
		Driver:        getDriverFromEnv(),
		DSN:           filepath.Join(dataDir, "slider_test.db"),
		PayloadTTL:    600 * time.Second,
		PayloadJitter: 60 * time.Second,
		LockTTL:       10 * time.Second,
	}
	if dsn := os.Getenv("SLIDER_TEST_DSN"); dsn != "" {
		testProfile.DSN = dsn
	}
	return testProfile
}

func getDriverFromEnv() string {
	driver := os.Getenv("SLIDER_TEST_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}
