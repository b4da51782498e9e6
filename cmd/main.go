package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/SMC-TherapyBooking/internal/api/handlers/cancel_booking"
	computeSplitHandler "github.com/m04kA/SMC-TherapyBooking/internal/api/handlers/compute_split"
	confirmBookingHandler "github.com/m04kA/SMC-TherapyBooking/internal/api/handlers/confirm_booking"
	createBookingHandler "github.com/m04kA/SMC-TherapyBooking/internal/api/handlers/create_booking"
	getAvailableDaysHandler "github.com/m04kA/SMC-TherapyBooking/internal/api/handlers/get_available_days"
	getAvailableSlotsHandler "github.com/m04kA/SMC-TherapyBooking/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-TherapyBooking/internal/api/handlers/get_booking"
	"github.com/m04kA/SMC-TherapyBooking/internal/api/middleware"
	"github.com/m04kA/SMC-TherapyBooking/internal/config"
	intentRepo "github.com/m04kA/SMC-TherapyBooking/internal/infra/storage/intent"
	reservationRepo "github.com/m04kA/SMC-TherapyBooking/internal/infra/storage/reservation"
	profileServiceClient "github.com/m04kA/SMC-TherapyBooking/internal/integrations/profileservice"
	bookingsService "github.com/m04kA/SMC-TherapyBooking/internal/service/bookings"
	"github.com/m04kA/SMC-TherapyBooking/internal/service/lock"
	createBookingUC "github.com/m04kA/SMC-TherapyBooking/internal/usecase/create_booking"
	getAvailableDaysUC "github.com/m04kA/SMC-TherapyBooking/internal/usecase/get_available_days"
	getAvailableSlotsUC "github.com/m04kA/SMC-TherapyBooking/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-TherapyBooking/internal/worker/sweeper"
	"github.com/m04kA/SMC-TherapyBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-TherapyBooking/pkg/logger"
	"github.com/m04kA/SMC-TherapyBooking/pkg/metrics"
)

// slotStore полный контракт хранилища слотов (PostgreSQL или память)
type slotStore interface {
	lock.SlotStore
	bookingsService.ReservationStore
	getAvailableSlotsUC.ReservationReader
	sweeper.SlotStore
	CheckAvailable(ctx context.Context) error
}

func main() {
	configPath := "config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-TherapyBooking...")
	log.Info("Configuration loaded from %s (strategy=%s, hold=%s)",
		configPath, cfg.Booking.Strategy, cfg.Booking.HoldDuration())

	// Endpoint и middleware метрик подключаются только если метрики включены
	metricsCollector := metrics.New(cfg.Metrics.ServiceName)
	stopMetricsCh := make(chan struct{})

	ctx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	// ============================================================
	// ХРАНИЛИЩА
	// ============================================================

	var (
		slots   slotStore
		intents *intentRepo.Repository
	)

	switch cfg.Booking.Strategy {
	case config.StrategyMemory:
		slots = reservationRepo.NewMemoryRepository()
		log.Warn("Using in-memory slot store: reservations are lost on restart")

	case config.StrategyReservation, config.StrategyAuto:
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		if err := db.Ping(); err != nil {
			log.Fatal("Failed to ping database: %v", err)
		}
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

		if cfg.Metrics.Enabled {
			slots = reservationRepo.NewRepository(dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh))
			log.Info("Database metrics collection started")
		} else {
			slots = reservationRepo.NewRepository(db)
		}
	}

	// Стратегия фиксируется при старте: во время работы хранилища не переключаются
	useSlots := slots != nil
	if slots != nil {
		if err := slots.CheckAvailable(ctx); err != nil {
			if !errors.Is(err, reservationRepo.ErrStoreUnavailable) || cfg.Booking.Strategy != config.StrategyAuto {
				log.Fatal("Slot store check failed: %v", err)
			}
			log.Warn("Slot store is not available in this installation, bookings will use intents until restart: %v", err)
			useSlots = false
		}
	}

	if cfg.Booking.UsesIntents() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		intents = intentRepo.NewRepository(redisClient)
		if err := intents.CheckAvailable(ctx); err != nil {
			if !useSlots {
				log.Fatal("Failed to connect to Redis at %s: %v", cfg.Redis.Addr, err)
			}
			log.Warn("Redis at %s is not reachable, earlier intents are not readable: %v", cfg.Redis.Addr, err)
		} else {
			log.Info("Successfully connected to Redis (addr=%s, db=%d)", cfg.Redis.Addr, cfg.Redis.DB)
		}
	}

	// Неиспользуемые стратегией хранилища остаются nil-интерфейсами
	var (
		reservationStore  bookingsService.ReservationStore
		reservationReader getAvailableSlotsUC.ReservationReader
		sweepSlots        sweeper.SlotStore
		intentStore       bookingsService.IntentStore
		intentReader      getAvailableSlotsUC.IntentReader
		sweepIntents      sweeper.IntentStore
		locker            createBookingUC.Locker
	)
	lockOpts := []lock.Option{lock.WithHoldDuration(cfg.Booking.HoldDuration())}

	if useSlots {
		reservationStore, reservationReader, sweepSlots = slots, slots, slots
		locker = lock.NewManager(slots, log, lockOpts...)
	}
	if intents != nil {
		// в auto намерения остаются читаемыми для холдов, созданных до перезапуска
		intentStore, intentReader, sweepIntents = intents, intents, intents
		if locker == nil {
			locker = lock.NewIntentManager(intents, log, lockOpts...)
		}
	}
	log.Info("Bookings are acquired through the %s store", locker.Source())

	// ============================================================
	// ИНТЕГРАЦИИ, СЕРВИСЫ, USE CASES
	// ============================================================

	profileClient := profileServiceClient.NewClient(
		cfg.ProfileService.URL,
		time.Duration(cfg.ProfileService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (ProfileService=%s timeout=%ds)",
		cfg.ProfileService.URL, cfg.ProfileService.Timeout)

	bookingSvc := bookingsService.NewService(reservationStore, intentStore, log)

	createBookingUseCase := createBookingUC.NewUseCase(locker, nil, metricsCollector, log)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		profileClient,
		reservationReader,
		intentReader,
		getAvailableSlotsUC.Settings{
			SessionMinutes: cfg.Booking.SessionMinutes,
			GapMinutes:     cfg.Booking.GapMinutes,
			MinHoursAhead:  cfg.Booking.MinHoursAhead,
		},
		log,
	)

	getAvailableDaysUseCase := getAvailableDaysUC.NewUseCase(profileClient, cfg.Booking.MinHoursAhead, log)

	// Фоновая очистка истекших холдов
	expirySweeper := sweeper.NewSweeper(sweepSlots, sweepIntents, metricsCollector, log).
		WithInterval(cfg.Booking.SweepInterval()).
		WithBatchSize(cfg.Booking.SweepBatchSize)

	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		expirySweeper.Run(ctx)
	}()
	log.Info("Expiry sweeper started (interval=%s, batch=%d)",
		cfg.Booking.SweepInterval(), cfg.Booking.SweepBatchSize)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	confirmBooking := confirmBookingHandler.NewHandler(bookingSvc, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getAvailableDays := getAvailableDaysHandler.NewHandler(getAvailableDaysUseCase, log)
	computeSplit := computeSplitHandler.NewHandler(log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты психолога на дату
	api.HandleFunc("/psychologists/{psychologistId}/available-slots",
		getAvailableSlots.Handle).Methods(http.MethodGet)

	// Ближайшие дни приема психолога
	api.HandleFunc("/psychologists/{psychologistId}/available-days",
		getAvailableDays.Handle).Methods(http.MethodGet)

	// Распределение стоимости сессии
	api.HandleFunc("/split", computeSplit.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// Захват слота
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Подтверждение после оплаты
	protected.HandleFunc("/bookings/{bookingId}/confirm", confirmBooking.Handle).Methods(http.MethodPost)

	// Отмена бронирования
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем sweeper и сбор метрик connection pool
	cancelWorkers()
	<-sweeperDone
	close(stopMetricsCh)
	log.Info("Background workers stopped")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
