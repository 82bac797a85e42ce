package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"quickbook/internal/api"
	"quickbook/internal/auth"
	"quickbook/internal/booking"
	"quickbook/internal/config"
	"quickbook/internal/database"
	"quickbook/internal/domain"
	"quickbook/internal/events"
	"quickbook/internal/google"
	"quickbook/internal/logging"
	"quickbook/internal/metrics"
	"quickbook/internal/notify"
	"quickbook/internal/repository"
	"quickbook/internal/service"
	"quickbook/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	loc, err := cfg.Booking.Location()
	if err != nil {
		return fmt.Errorf("booking timezone: %w", err)
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	bus := events.NewEventBus()
	bus.OnError(func(event *events.Event, err error) {
		logger.Error().Err(err).Str("event_type", event.Type).Msg("event handler failed")
	})

	var wg sync.WaitGroup
	background := func(name string, fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
			logger.Debug().Str("task", name).Msg("background task stopped")
		}()
	}

	var syncWorker domain.SyncWorker
	sheetsWorker := initSheetsWorker(ctx, cfg, db, redisClient, loc, logger)
	if sheetsWorker != nil {
		syncWorker = sheetsWorker
	}

	rules := booking.Rules{
		OpenHour:    cfg.Booking.OpenHour,
		CloseHour:   cfg.Booking.CloseHour,
		MinDuration: cfg.Booking.MinDuration,
		MaxDuration: cfg.Booking.MaxDuration,
		Location:    loc,
	}

	issuer := auth.NewIssuer(cfg.API.Auth.JWTSecret, cfg.API.Auth.TokenTTL, cfg.API.Auth.Issuer)
	otpStore := initOTPStore(redisClient, logger)

	svc := api.Services{
		Users:        service.NewUserService(db, otpStore, issuer, logging.Component(logger, "users")),
		OTP:          service.NewOTPService(otpStore, initMailer(cfg, logger), cfg.OTP, logging.Component(logger, "otp")),
		Rooms:        service.NewRoomService(db, db, logging.Component(logger, "rooms")),
		Reservations: service.NewReservationService(db, db, bus, syncWorker, rules, logging.Component(logger, "reservations")),
		Feedbacks:    service.NewFeedbackService(db, db, bus, logging.Component(logger, "feedbacks")),
		Dashboard:    service.NewDashboardService(db, db, db, db, loc),
	}

	if err := seedData(ctx, cfg, svc, logger); err != nil {
		return err
	}

	if sheetsWorker != nil {
		if err := prepareSheets(ctx, cfg, db, sheetsWorker, svc.Reservations, logger); err != nil {
			logger.Warn().Err(err).Msg("sheet resync failed, incremental sync continues")
		}
		background("sheets-worker", sheetsWorker.Start)
	}

	initTelegram(cfg, bus, loc, logger)

	background("backup", database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup")).Start)
	background("completion-sweeper", worker.NewCompletionSweeper(svc.Reservations, cfg.Booking.CompletionInterval, logging.Component(logger, "sweeper")).Start)

	startMetrics(ctx, cfg, logger)

	limiter := api.NewRateLimiter(cfg.API.RateLimit)
	httpServer := api.NewHTTPServer(cfg.API, svc, issuer, limiter, loc, logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, svc.Rooms, limiter, loc, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	err = startServers(ctx, grpcServer, httpServer, cfg, logger)
	stop()
	wg.Wait()
	return err
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, baseLogger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initOTPStore prefers Redis and falls back to memory when Redis is absent
// or goes down at runtime.
func initOTPStore(redisClient *redis.Client, logger *zerolog.Logger) domain.OTPStore {
	memory := repository.NewMemoryOTPStore()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverOTPStore(repository.NewRedisOTPStore(redisClient), memory, logging.Component(logger, "otp-store"))
}

func initMailer(cfg *config.Config, logger *zerolog.Logger) domain.Mailer {
	if !cfg.Mailjet.Enabled() {
		logger.Warn().Msg("mailjet is not configured, OTP codes are only logged")
		return notify.NewLogMailer(logging.Component(logger, "mailer"))
	}
	return notify.NewMailjetMailer(cfg.Mailjet, logging.Component(logger, "mailer"))
}

func initSheetsWorker(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	redisClient *redis.Client,
	loc *time.Location,
	logger *zerolog.Logger,
) *worker.SheetsWorker {
	if !cfg.Google.Enabled() {
		return nil
	}

	sheets, err := google.NewSheetsService(ctx, cfg.Google.CredentialsFile, cfg.Google.ReservationsSheetID, cfg.Google.ReservationsSheetName, loc)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheets.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets unreachable, continuing without sheets")
		return nil
	}
	if err := sheets.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets row cache warm-up failed")
	}

	logger.Info().Str("spreadsheet_id", cfg.Google.ReservationsSheetID).Msg("google sheets connected")
	return worker.NewSheetsWorker(db, sheets, redisClient, worker.DefaultRetryPolicy(), logging.Component(logger, "sheets-worker"))
}

// prepareSheets reports tasks that exhausted their retries and optionally
// rewrites the sheet from the database.
func prepareSheets(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	sheetsWorker *worker.SheetsWorker,
	reservations *service.ReservationService,
	logger *zerolog.Logger,
) error {
	failed, err := db.GetFailedSyncTasks(ctx)
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		logger.Warn().Int("count", len(failed)).Msg("sheet sync tasks failed permanently")
	}

	if !cfg.Google.ResyncOnStart {
		return nil
	}
	all, err := reservations.ListAll(ctx)
	if err != nil {
		return err
	}
	return sheetsWorker.Resync(ctx, all)
}

func initTelegram(cfg *config.Config, bus *events.EventBus, loc *time.Location, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.AdminChatIDs) == 0 {
		return
	}
	bot, err := notify.NewTelegramBot(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, admin notifications disabled")
		return
	}
	notify.NewTelegramNotifier(bot, cfg.Telegram.AdminChatIDs, loc, logging.Component(logger, "telegram")).Subscribe(bus)
	logger.Info().Str("bot", bot.Self.UserName).Int("chats", len(cfg.Telegram.AdminChatIDs)).Msg("telegram notifications enabled")
}

func seedData(ctx context.Context, cfg *config.Config, svc api.Services, logger *zerolog.Logger) error {
	seeds, err := config.LoadSeedRooms(cfg.SeedRoomsPath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.SeedRoomsPath).Msg("load seed rooms")
		return err
	}
	created, err := svc.Rooms.Seed(ctx, seeds)
	if err != nil {
		return fmt.Errorf("seed rooms: %w", err)
	}
	if created > 0 {
		logger.Info().Int("rooms", created).Msg("seed rooms created")
	}

	if _, err := svc.Users.PromoteAdmins(ctx, cfg.Admins); err != nil {
		return fmt.Errorf("promote admins: %w", err)
	}
	return nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 2)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	if cfg.API.HTTP.Enabled {
		go func() {
			if err := httpServer.Start(); err != nil {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	event := logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("http_enabled", cfg.API.HTTP.Enabled)
	if grpcServer != nil {
		event = event.Str("grpc_addr", grpcServer.Addr())
	}
	event.Msg("API server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	logger.Info().Int("port", port).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
