package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labelprint/labelprint/internal/application/printserver"
	"github.com/labelprint/labelprint/internal/infrastructure/cache"
	"github.com/labelprint/labelprint/internal/infrastructure/config"
	"github.com/labelprint/labelprint/internal/infrastructure/logger"
	"github.com/labelprint/labelprint/internal/infrastructure/persistence"
	infra "github.com/labelprint/labelprint/internal/infrastructure/printing"
	"github.com/labelprint/labelprint/internal/infrastructure/storage"
	"github.com/labelprint/labelprint/internal/interfaces/http/handler"
	"github.com/labelprint/labelprint/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting label print server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Print history database
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	jobRepo := persistence.NewGormPrintJobRepository(db.DB)

	// Printer catalog
	registry, err := infra.LoadRegistry(cfg.Printers.File, cfg.Printers.PapersFile)
	if err != nil {
		log.Fatal("Failed to load printers", zap.Error(err))
	}
	for _, p := range registry.Descriptors() {
		log.Info("Printer configured",
			zap.String("printer", p.Name),
			zap.Float64("width_mm", p.Paper.WidthMm),
			zap.Float64("height_mm", p.Paper.HeightMm),
		)
	}

	// Label archive
	archive, err := storage.NewArchive(context.Background(), cfg.Archive, log)
	if err != nil {
		log.Fatal("Failed to initialize label archive", zap.Error(err))
	}

	// Device locks, shared through Redis when enabled
	locker := cache.NewDeviceLocker(cfg.Redis, cfg.Printers, log)
	if closer, ok := locker.(io.Closer); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	encoder := infra.NewEncoder(infra.EncoderOptions{
		Speed:   byte(cfg.Printers.Speed),
		Density: byte(cfg.Printers.Density),
		Cutter:  cfg.Printers.Cutter,
	})

	printService := printserver.NewPrintService(
		registry,
		jobRepo,
		archive,
		locker,
		infra.DeviceDialer{Timeout: cfg.Printers.DeviceTimeout},
		encoder,
		printserver.Options{
			HeadWidth:    cfg.Printers.HeadWidth,
			CenterOnHead: cfg.Printers.CenterOnHead,
			Threshold:    cfg.Printers.Threshold,
		},
		log,
	)

	// HTTP
	engine := router.NewEngine(cfg, log)
	router.NewRouter(engine).
		Register(
			handler.NewPrinterHandler(printService),
			handler.NewJobHandler(printService),
			handler.NewHealthHandler(registry.Len, func(context.Context) error {
				return db.Ping()
			}),
		).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
