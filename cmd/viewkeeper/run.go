package main

import (
	"context"
	"net/http"
	"os"
	"time"

	consoleadapter "github.com/ericfisherdev/viewkeeper/internal/adapter/driven/console"
	sqliteadapter "github.com/ericfisherdev/viewkeeper/internal/adapter/driven/sqlite"
	whatsappadapter "github.com/ericfisherdev/viewkeeper/internal/adapter/driven/whatsapp"
	httphandler "github.com/ericfisherdev/viewkeeper/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/viewkeeper/internal/adapter/driving/web"
	"github.com/ericfisherdev/viewkeeper/internal/application"
	"github.com/ericfisherdev/viewkeeper/internal/config"
	"github.com/ericfisherdev/viewkeeper/internal/domain/port/driven"
	"github.com/ericfisherdev/viewkeeper/internal/logging"
)

func run(ctx context.Context) error {
	// 1. Load configuration and logger (fail fast on invalid values).
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr(),
		"db_path", cfg.DBPath,
		"reconnect_delay", cfg.ReconnectDelay,
		"reconnect_max_delay", cfg.ReconnectMaxDelay,
		"http_start", cfg.HTTPStart,
	)

	// 2. Open database (writer, reader and session pools with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	logger.Info("database opened", "path", cfg.DBPath)

	// 3. Run relay log migrations on writer connection.
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	logger.Info("migrations complete", "version", version)

	// 4. Wire stores. The session store upgrades the protocol library's own tables.
	relayLog := sqliteadapter.NewRelayLogRepo(db)
	sessions, err := sqliteadapter.NewSessionRepo(ctx, db, logging.NewWALogger(logger, "store"))
	if err != nil {
		return err
	}

	// 5. Create protocol client over the stored (or fresh) device.
	whatsappadapter.SetDeviceName(cfg.DeviceName)
	device, err := sessions.Device(ctx)
	if err != nil {
		return err
	}
	client := whatsappadapter.NewClient(device, logging.NewWALogger(logger, "client"), logger)
	if device.ID == nil {
		logger.Info("no stored session, a pairing code will be shown")
	} else {
		logger.Info("stored session found", "device", device.ID.String())
	}

	// 6. Create supervisor.
	var display driven.PairingDisplay
	if cfg.ConsoleQR {
		display = consoleadapter.NewDisplay(os.Stdout)
	}
	supervisor := application.NewSupervisor(
		client,
		sessions,
		display,
		relayLog,
		application.NewReconnectPolicy(cfg.ReconnectDelay, cfg.ReconnectMaxDelay),
		cfg.RelayTimeout,
		logger,
	)

	// 7. Create HTTP handlers and register routes.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(supervisor, relayLog, logger))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(supervisor, relayLog, logger))

	srv := newServer(cfg.ListenAddr(), httphandler.ApplyMiddleware(mux, logger), logger)

	// 8. Start HTTP server now or once the first connection opens.
	switch cfg.HTTPStart {
	case config.HTTPStartConnected:
		supervisor.OnOpen("http server", srv.Start)
	default:
		if err := srv.Start(ctx); err != nil {
			return err
		}
	}

	// 9. Run supervisor until shutdown signal.
	done := make(chan struct{})
	go func() {
		defer close(done)
		supervisor.Run(ctx)
	}()
	logger.Info("viewkeeper started", "listen_addr", cfg.ListenAddr())

	<-ctx.Done()
	logger.Info("shutting down")
	<-done

	// 10. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	// 11. Log shutdown complete.
	logger.Info("shutdown complete")
	return nil
}
