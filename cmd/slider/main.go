package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zihaozhangmm/slider/internal/profile"
	"github.com/zihaozhangmm/slider/internal/version"
	"github.com/zihaozhangmm/slider/server"
	"github.com/zihaozhangmm/slider/store"
	"github.com/zihaozhangmm/slider/store/cache"
	"github.com/zihaozhangmm/slider/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "slider",
	Short: "A slider content service with a read-through cache",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Data:    viper.GetString("data"),
			Driver:  viper.GetString("driver"),
			DSN:     viper.GetString("dsn"),
			Version: version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			return fmt.Errorf("failed to validate profile: %w", err)
		}
		if instanceProfile.IsDev() {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		driver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			return fmt.Errorf("failed to create db driver: %w", err)
		}

		storeInstance := store.New(driver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		cacheInstance, err := newCache(ctx, instanceProfile)
		if err != nil {
			return fmt.Errorf("failed to create cache: %w", err)
		}

		s := server.NewServer(instanceProfile, storeInstance, cacheInstance)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", slog.String("error", err.Error()))
			cancel()
		}

		// Wait for the signal, then drain.
		<-ctx.Done()
		s.Shutdown()
		return nil
	},
}

// newCache picks the cache backend: redis when configured, otherwise the
// in-process memory cache. The memory backend is only safe for single-instance
// deployments; the populate lock does not cross processes with it.
func newCache(ctx context.Context, instanceProfile *profile.Profile) (cache.Cache, error) {
	if instanceProfile.RedisAddr == "" {
		return cache.NewMemory(cache.DefaultMemoryConfig()), nil
	}
	return cache.NewRedis(ctx, cache.RedisConfig{
		Addr:         instanceProfile.RedisAddr,
		Password:     instanceProfile.RedisPassword,
		DB:           instanceProfile.RedisDB,
		KeyPrefix:    instanceProfile.RedisPrefix,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

func init() {
	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8230, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("slider")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to run command", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
