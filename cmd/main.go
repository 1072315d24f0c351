package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"MediCore/aiclient"
	"MediCore/cache"
	"MediCore/config"
	"MediCore/database"
	"MediCore/events"
	"MediCore/repositories"
	"MediCore/repositories/memory"
	"MediCore/routes"
	"MediCore/services"
	"MediCore/utils"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medicore",
		Short: "MediCore clinic management API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var inMemory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(inMemory)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "use process-local storage instead of Postgres and Redis")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(true)
			if err != nil {
				return err
			}
			db, err := database.InitDB(cmd.Context(), cfg.DBURL, cfg.IsDev(), log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.RunMigrations(cmd.Context(), db); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var input services.RegisterInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(true)
			if err != nil {
				return err
			}
			db, err := database.InitDB(cmd.Context(), cfg.DBURL, false, log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			users := services.NewUserService(services.Dependencies{
				Repos:  repositories.NewRepositories(db),
				Hasher: utils.NewPasswordHasher(cfg.BcryptCost),
				Log:    log,
			})
			admin, err := users.CreateAdmin(cmd.Context(), input)
			if err != nil {
				return err
			}
			log.Info().Str("user_id", admin.ID).Str("email", admin.Email).Msg("administrator created")
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	cmd.Flags().StringVar(&input.Email, "email", "", "login email")
	cmd.Flags().StringVar(&input.Password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// setup loads and validates configuration and builds the process logger.
func setup(requireDB bool) (*config.AppConfig, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := utils.NewLogger(cfg.Env)
	if err := cfg.Validate(requireDB); err != nil {
		return nil, log, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log, nil
}

// openCache connects to Redis. Without REDIS_URL it falls back to a
// process-local cache and no slot lock.
func openCache(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (cache.Store, cache.Locker, func(), error) {
	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, using process-local cache without slot locks")
		return cache.NewMemoryCache(), nil, func() {}, nil
	}

	redisClient, err := database.NewRedisClient(ctx, database.LoadRedisConfig(cfg), log)
	if err != nil {
		return nil, nil, nil, err
	}
	go database.MonitorRedisPool(ctx, redisClient, time.Minute, log)

	redisCache, err := cache.NewCache(redisClient)
	if err != nil {
		_ = redisClient.Close()
		return nil, nil, nil, err
	}
	closeClient := func() {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}
	return redisCache, cache.NewRedisLocker(redisClient), closeClient, nil
}

func runServer(inMemory bool) error {
	cfg, log, err := setup(!inMemory)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := services.Dependencies{
		Mailer: utils.NewMailer(utils.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		}, log),
		Model: aiclient.New(aiclient.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
			Timeout: cfg.AITimeout,
		}),
		Events:       events.New(cfg.KafkaBrokerList(), cfg.KafkaTopic, log),
		Hasher:       utils.NewPasswordHasher(cfg.BcryptCost),
		AccessTTL:    cfg.AccessTokenTTL,
		RefreshTTL:   cfg.RefreshTokenTTL,
		AITimeout:    cfg.AITimeout,
		AnalyticsTTL: cfg.AnalyticsCacheTTL,
		Log:          log,
	}
	defer deps.Events.Close()

	if deps.AccessTokens, err = utils.NewTokenMaker(cfg.TokenFormat, cfg.AccessSecret, utils.AccessToken); err != nil {
		return err
	}
	if deps.RefreshTokens, err = utils.NewTokenMaker(cfg.TokenFormat, cfg.RefreshSecret, utils.RefreshToken); err != nil {
		return err
	}
	if deps.Model == nil {
		log.Warn().Msg("GEMINI_API_KEY not set, AI workflows will run degraded")
	}

	var db *gorm.DB
	if inMemory {
		log.Warn().Msg("serving from in-memory storage, data is lost on exit")
		store := cache.NewMemoryCache()
		deps.Repos = memory.NewStore().Repositories()
		deps.Cache = store
		deps.Locker = cache.NewMemoryLocker(store)
	} else {
		db, err = database.InitDB(ctx, cfg.DBURL, cfg.IsDev(), log)
		if err != nil {
			return err
		}
		defer database.Close(db)
		if err := database.RunMigrations(ctx, db); err != nil {
			return err
		}

		store, locker, closeCache, err := openCache(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeCache()

		deps.Repos = repositories.NewRepositories(db)
		deps.Cache = store
		deps.Locker = locker
	}

	handler := routes.SetupRoutes(cfg, log, services.NewContainer(deps))

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        handler,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxHeaderBytes: 1 << 20,
		IdleTimeout:    60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	serveErr := make(chan error, 1)

	go func() {
		defer wg.Done()
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("listen and serve: %w", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	log.Info().Msg("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	wg.Wait()
	log.Info().Msg("server exited gracefully")
	return nil
}
